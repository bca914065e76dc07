package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/absences/core/attendance"
)

type (
	// statuses are stored by name, eg. "excused"; "" is unset
	recordRow struct {
		ID        string      `db:"id"`
		StudentID string      `db:"student_id"`
		Date      string      `db:"record_date"`
		Morning   string      `db:"morning"`
		Afternoon string      `db:"afternoon"`
		Notes     null.String `db:"notes"`
		UpdatedAt time.Time   `db:"updated_at"`
	}

	recordRepository struct {
		db *sqlx.DB
	}
)

var _ attendance.Repository = (*recordRepository)(nil) // interface compliance check

func newRecordRow(rec attendance.Record) recordRow {
	return recordRow{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		Date:      rec.Date.String(),
		Morning:   rec.Morning.String(),
		Afternoon: rec.Afternoon.String(),
		Notes:     null.NewString(rec.Notes, rec.Notes != ""),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
}

func (row recordRow) record() (attendance.Record, error) {
	morning, err := attendance.ParseStatus(row.Morning)
	if err != nil {
		return attendance.Record{}, err
	}
	afternoon, err := attendance.ParseStatus(row.Afternoon)
	if err != nil {
		return attendance.Record{}, err
	}
	return attendance.Record{
		ID:        row.ID,
		StudentID: row.StudentID,
		Date:      attendance.Date(row.Date),
		Morning:   morning,
		Afternoon: afternoon,
		Notes:     row.Notes.String,
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func NewRecordRepository(db *sqlx.DB) attendance.Repository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) QueryAllRecords(ctx context.Context) ([]attendance.Record, error) {
	var rows []recordRow
	q := `SELECT id, student_id, record_date, morning, afternoon, notes, updated_at FROM attendance_records`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, errors.Wrapf(err, "attendance record %s", row.ID)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// SaveRecord inserts rec, or updates the statuses and notes of the (student, date) record.
func (repo *recordRepository) SaveRecord(ctx context.Context, rec attendance.Record) error {
	q := `INSERT INTO attendance_records (id, student_id, record_date, morning, afternoon, notes, updated_at)
		VALUES (:id, :student_id, :record_date, :morning, :afternoon, :notes, :updated_at)
		ON CONFLICT (student_id, record_date) DO UPDATE
		SET morning = excluded.morning, afternoon = excluded.afternoon, notes = excluded.notes, updated_at = excluded.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, newRecordRow(rec)); err != nil {
		return errors.Wrap(err, "saving attendance record")
	}
	return nil
}

func (repo *recordRepository) DeleteRecord(ctx context.Context, studentID string, date attendance.Date) error {
	q := repo.db.Rebind(`DELETE FROM attendance_records WHERE student_id = ? AND record_date = ?`)
	if _, err := repo.db.ExecContext(ctx, q, studentID, date.String()); err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	return nil
}

func (repo *recordRepository) DeleteRecordsByStudent(ctx context.Context, studentID string) error {
	q := repo.db.Rebind(`DELETE FROM attendance_records WHERE student_id = ?`)
	if _, err := repo.db.ExecContext(ctx, q, studentID); err != nil {
		return errors.Wrap(err, "deleting attendance records")
	}
	return nil
}
