package dummydb

import (
	"context"
	"slices"

	"github.com/trezcool/absences/core/notification"
)

type (
	notificationRepository struct {
		db *notificationTable
	}

	templateRepository struct {
		db *templateTable
	}
)

var (
	_ notification.Repository         = (*notificationRepository)(nil) // interface compliance check
	_ notification.TemplateRepository = (*templateRepository)(nil)     // interface compliance check
)

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) QueryAllEntries(ctx context.Context) ([]notification.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return slices.Clone(repo.db.table), nil
}

func (repo *notificationRepository) CreateEntry(ctx context.Context, entry notification.Entry) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table = append(repo.db.table, entry)
	return nil
}

func (repo *notificationRepository) DeleteEntriesByStudent(ctx context.Context, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table = slices.DeleteFunc(repo.db.table, func(e notification.Entry) bool { return e.StudentID == studentID })
	return nil
}

func NewTemplateRepository(db *DB) notification.TemplateRepository {
	return &templateRepository{db: db.template}
}

func (repo *templateRepository) QueryAllTemplates(ctx context.Context) ([]notification.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tpls := make([]notification.Template, 0, len(repo.db.table))
	for _, tpl := range repo.db.table {
		tpls = append(tpls, tpl)
	}
	return tpls, nil
}

func (repo *templateRepository) SaveTemplate(ctx context.Context, tpl notification.Template) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[tpl.Kind] = tpl
	return nil
}
