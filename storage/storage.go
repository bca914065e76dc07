// Package storage opens the repositories of the configured database engine.
package storage

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/tracker"
	"github.com/trezcool/absences/storage/database"
	dummydb "github.com/trezcool/absences/storage/database/dummy"
	sqlxrepos "github.com/trezcool/absences/storage/database/sqlx"
)

type Storage struct {
	Repos tracker.Repositories
	DB    *sqlx.DB // nil with the memory engine
}

// Open creates, opens and migrates the database, then returns its repositories.
func Open(conf *core.Config) (*Storage, error) {
	if conf.Database.Engine == database.EngineMemory {
		db, err := dummydb.Open()
		if err != nil {
			return nil, errors.Wrap(err, "opening memory database")
		}
		return &Storage{
			Repos: tracker.Repositories{
				Students:      dummydb.NewStudentRepository(db),
				Records:       dummydb.NewRecordRepository(db),
				Notifications: dummydb.NewNotificationRepository(db),
				Templates:     dummydb.NewTemplateRepository(db),
			},
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{
		Repos: tracker.Repositories{
			Students:      sqlxrepos.NewStudentRepository(db),
			Records:       sqlxrepos.NewRecordRepository(db),
			Notifications: sqlxrepos.NewNotificationRepository(db),
			Templates:     sqlxrepos.NewTemplateRepository(db),
		},
		DB: db,
	}, nil
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
