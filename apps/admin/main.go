package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/staff"
	logsvc "github.com/trezcool/registrar/services/logger"
	"github.com/trezcool/registrar/storage/database"
	"github.com/trezcool/registrar/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	ctx := context.Background()
	errAndDie(logger, database.CreateIfNotExist(ctx, conf))
	db, err := database.Open(conf)
	errAndDie(logger, err)
	errAndDie(logger, database.Ping(ctx, db))

	// set up validation
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)

	// start CLI
	staffRepo := sqlxrepos.NewStaffRepository(db)
	cli := commandLine{
		conf:       conf,
		db:         db.DB,
		validate:   validate,
		translator: translator,
		staffRepo:  staffRepo,
		staffSvc:   staff.NewService(staffRepo),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			printError(stdLogger, err)
		}
		os.Exit(1)
	}
}

func printError(logger *log.Logger, err error) {
	if vErr, ok := core.AsValidationError(err); ok && len(vErr.Fields) > 0 {
		fields := vErr.FieldMap()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			logger.Printf("error: %s: %s\n", name, fields[name])
		}
		return
	}
	logger.Printf("\nerror: %s\n", err)
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
}
