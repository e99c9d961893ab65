package main

import (
	"path/filepath"

	"github.com/pressly/goose/v3"

	"github.com/trezcool/registrar/storage/database"
)

var (
	gooseRunFunc    = database.Migrate // mockable
	gooseCreateFunc = goose.Create     // mockable
)

func (cli *commandLine) migrate(args []string) error {
	command, arguments := args[0], args[1:]

	// new migrations are written to the source tree, to be embedded by the next build
	if command == "create" {
		if len(arguments) == 0 {
			cli.printUsage()
			return errHelp
		}
		kind := "sql"
		if len(arguments) > 1 {
			kind = arguments[1]
		}
		return gooseCreateFunc(nil, filepath.Join(cli.conf.WorkDir, "fs", "migrations"), arguments[0], kind)
	}
	return gooseRunFunc(cli.db, command, arguments...)
}
