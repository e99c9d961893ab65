package main

import (
	"context"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/staff"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.staffRepo.GetUser(ctx, staff.GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
	if err != nil {
		return err
	}
	if err = staff.CheckPasswordPolicy(pwd, usr.Username, usr.Email); err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = staff.NowFunc().UTC()
	_, err = cli.staffRepo.UpdateUser(ctx, usr)
	return err
}
