package main

import (
	"log"
	"os"

	"github.com/nm2tech/classmate/core"
	"github.com/nm2tech/classmate/core/activity"
	"github.com/nm2tech/classmate/core/user"
	logsvc "github.com/nm2tech/classmate/services/logger"
	"github.com/nm2tech/classmate/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.LoadConfig()
	errAndDie(err)

	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	rollbarLogger := logsvc.NewRollbarLogger(logger, conf)
	auditSvc := activity.NewService(database.NewActivityRepository(db), rollbarLogger)

	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(database.NewUserRepository(db), auditSvc),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
