package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/absences/core/notification"
)

type (
	entryRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		SentAt    time.Time `db:"sent_at"`
		Kind      string    `db:"kind"`
	}

	templateRow struct {
		Kind    string `db:"kind"`
		Name    string `db:"name"`
		Subject string `db:"subject"`
		Body    string `db:"body"`
	}

	notificationRepository struct {
		db *sqlx.DB
	}

	templateRepository struct {
		db *sqlx.DB
	}
)

var (
	_ notification.Repository         = (*notificationRepository)(nil) // interface compliance check
	_ notification.TemplateRepository = (*templateRepository)(nil)     // interface compliance check
)

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) QueryAllEntries(ctx context.Context) ([]notification.Entry, error) {
	var rows []entryRow
	q := `SELECT id, student_id, sent_at, kind FROM notification_log ORDER BY sent_at`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting notification log")
	}
	entries := make([]notification.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, notification.Entry{
			ID:        row.ID,
			StudentID: row.StudentID,
			Timestamp: row.SentAt.UTC(),
			Kind:      notification.Kind(row.Kind),
		})
	}
	return entries, nil
}

func (repo *notificationRepository) CreateEntry(ctx context.Context, entry notification.Entry) error {
	q := `INSERT INTO notification_log (id, student_id, sent_at, kind) VALUES (:id, :student_id, :sent_at, :kind)`
	row := entryRow{ID: entry.ID, StudentID: entry.StudentID, SentAt: entry.Timestamp.UTC(), Kind: string(entry.Kind)}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return errors.Wrap(err, "inserting notification log entry")
	}
	return nil
}

func (repo *notificationRepository) DeleteEntriesByStudent(ctx context.Context, studentID string) error {
	q := repo.db.Rebind(`DELETE FROM notification_log WHERE student_id = ?`)
	if _, err := repo.db.ExecContext(ctx, q, studentID); err != nil {
		return errors.Wrap(err, "deleting notification log")
	}
	return nil
}

func NewTemplateRepository(db *sqlx.DB) notification.TemplateRepository {
	return &templateRepository{db: db}
}

func (repo *templateRepository) QueryAllTemplates(ctx context.Context) ([]notification.Template, error) {
	var rows []templateRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT kind, name, subject, body FROM email_templates`); err != nil {
		return nil, errors.Wrap(err, "selecting email templates")
	}
	tpls := make([]notification.Template, 0, len(rows))
	for _, row := range rows {
		tpls = append(tpls, notification.Template{
			Kind:    notification.Kind(row.Kind),
			Name:    row.Name,
			Subject: row.Subject,
			Body:    row.Body,
		})
	}
	return tpls, nil
}

func (repo *templateRepository) SaveTemplate(ctx context.Context, tpl notification.Template) error {
	q := `INSERT INTO email_templates (kind, name, subject, body) VALUES (:kind, :name, :subject, :body)
		ON CONFLICT (kind) DO UPDATE SET name = excluded.name, subject = excluded.subject, body = excluded.body`
	row := templateRow{Kind: string(tpl.Kind), Name: tpl.Name, Subject: tpl.Subject, Body: tpl.Body}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return errors.Wrap(err, "saving email template")
	}
	return nil
}
