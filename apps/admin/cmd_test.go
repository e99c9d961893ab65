package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/staff"
	"github.com/trezcool/registrar/storage/database/inmem"
	"github.com/trezcool/registrar/tests"
)

var staffRepo staff.Repository

func setup(t *testing.T) *commandLine {
	validate, translator := testutil.NewValidator()

	// set up DB & repos
	staffRepo = inmem.NewStaffRepository(inmem.NewDB())

	// start CLI
	return &commandLine{
		conf:       core.NewTestConfig(),
		validate:   validate,
		translator: translator,
		staffRepo:  staffRepo,
		staffSvc:   staff.NewService(staffRepo),
	}
}

type cliTest struct {
	name        string
	args        []string // without program name
	wantErr     error
	wantErrStr  string
	wantInvalid bool // any *core.ValidationError
	extra       interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" || tt.wantInvalid {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantInvalid:
		if _, ok := core.AsValidationError(err); !ok {
			t.Errorf("cli.run() error = %v, want a validation error", err)
		}
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var created []string
	gooseCreateFunc = func(db *sql.DB, dir, name, migrationType string) error {
		created = append(created, name+"."+migrationType)
		return nil
	}
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErr: errHelp},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
		{name: "create", args: []string{"migrate", "create", "add_course"}},
		{name: "create go", args: []string{"migrate", "create", "seed_courses", "go"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	assert.Equal(t, []string{"add_course.sql", "seed_courses.go"}, created)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	existing := testutil.CreateStaff(t, staffRepo, "clerk", "Old-pass1", false, false)

	type extra struct {
		pwd      string
		username string
		isStaff  bool
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "admin"}, wantErr: errHelp},
		{
			name:        "weak password",
			args:        []string{"adduser", "-username", "admin"},
			extra:       extra{pwd: "password"},
			wantInvalid: true,
		},
		{
			name:        "invalid username",
			args:        []string{"adduser", "-username", "ad min!"},
			extra:       extra{pwd: "Str0ng-Pass!"},
			wantInvalid: true,
		},
		{
			name:  "new staff",
			args:  []string{"adduser", "-username", "Admin", "-email", "admin@gujaratvidyapith.org"},
			extra: extra{pwd: "Str0ng-Pass!", username: "admin", isStaff: true},
		},
		{
			name:  "new non staff",
			args:  []string{"adduser", "-username", "viewer", "-staff=false"},
			extra: extra{pwd: "Str0ng-Pass!", username: "viewer"},
		},
		{
			name:  "existing account",
			args:  []string{"adduser", "-username", "clerk"},
			extra: extra{pwd: "N3w-Pass!", username: "clerk", isStaff: true},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		ex, _ := tt.extra.(extra)
		mockPassword(ex.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err != nil {
				return
			}

			usr, err := staffRepo.GetUser(ctx, staff.GetFilter{Username: ex.username})
			require.NoError(t, err)
			assert.NoError(t, usr.CheckPassword(ex.pwd))
			assert.Equal(t, ex.isStaff, usr.IsStaff)
			assert.True(t, usr.IsActive)
			assert.Equal(t, ex.isStaff, usr.CanLogin())
		})
	}

	usr, err := staffRepo.GetUser(ctx, staff.GetFilter{ID: existing.ID})
	require.NoError(t, err)
	assert.False(t, bytes.Equal(existing.PasswordHash, usr.PasswordHash))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateStaff(t, staffRepo, "awe", "Old-pass1", true, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: "Str0ng-Pass!", wantErr: staff.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-username", usr.Username}, extra: "12345678", wantInvalid: true},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: "Str0ng-Pass!"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: "An0ther-Pass!"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err == nil {
				refreshedUsr, err := staffRepo.GetUser(context.Background(), staff.GetFilter{ID: usr.ID})
				require.NoError(t, err)
				assert.NoError(t, refreshedUsr.CheckPassword(pwd))
			}
		})
	}
}
