package main

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/tracker"
	emailsvc "github.com/trezcool/absences/services/email"
	logsvc "github.com/trezcool/absences/services/logger"
	"github.com/trezcool/absences/storage"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	st, err := storage.Open(conf)
	errAndDie(logger, err)

	// set up services
	mailer, err := emailsvc.NewService(conf)
	errAndDie(logger, err)
	trk := tracker.New(conf, st.Repos, mailer, logger, core.NewValidator())
	errAndDie(logger, trk.Load(context.Background()))

	// start CLI
	cli := commandLine{
		db:   st.DB,
		trk:  trk,
		in:   os.Stdin,
		inFd: int(os.Stdin.Fd()),
		out:  os.Stdout,
	}
	err = cli.run(os.Args)
	_ = st.Close()
	if err != nil {
		if !errors.Is(err, errHelp) {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
