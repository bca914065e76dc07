package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/absences/apps/api/echo"
	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/tracker"
	emailsvc "github.com/trezcool/absences/services/email"
	logsvc "github.com/trezcool/absences/services/logger"
	"github.com/trezcool/absences/storage"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) *storage.Storage {
	st, err := storage.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return st
}

func newRepositories(st *storage.Storage) tracker.Repositories {
	return st.Repos
}

func newTracker(
	conf *core.Config,
	repos tracker.Repositories,
	mailer core.EmailService,
	logger core.Logger,
	validator *core.Validator,
) (*tracker.Tracker, error) {
	trk := tracker.New(conf, repos, mailer, logger, validator)
	if err := trk.Load(context.Background()); err != nil {
		return nil, err
	}
	return trk, nil
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newRepositories))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newTracker))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
