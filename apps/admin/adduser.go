package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/staff"
)

// addUser creates a staff.User or, when the username is taken, reactivates it with the new password.
func (cli *commandLine) addUser(uname, email, pwd string, isStaff bool) error {
	ctx := context.Background()

	usr, err := cli.staffRepo.GetUser(ctx, staff.GetFilter{Username: core.CleanString(uname, true /* lower */)})
	if err != nil {
		if errors.Cause(err) != staff.ErrNotFound {
			return err
		}
		data := staff.NewUser{Username: uname, Email: email, Password: pwd, IsStaff: isStaff}
		if err = data.Validate(ctx, cli.validate, cli.translator, cli.staffRepo); err != nil {
			return err
		}
		_, err = cli.staffSvc.Create(ctx, data)
		return err
	}

	if err = staff.CheckPasswordPolicy(pwd, usr.Username, usr.Email); err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.IsStaff = usr.IsStaff || isStaff
	usr.IsActive = true
	usr.UpdatedAt = staff.NowFunc().UTC()
	_, err = cli.staffRepo.UpdateOrCreateUser(ctx, usr)
	return err
}
