package dummydb

import (
	"context"

	"github.com/trezcool/absences/core/attendance"
)

type recordRepository struct {
	db *recordTable
}

var _ attendance.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) attendance.Repository {
	return &recordRepository{db: db.record}
}

func (repo *recordRepository) QueryAllRecords(ctx context.Context) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (repo *recordRepository) SaveRecord(ctx context.Context, rec attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[recordKey{rec.StudentID, rec.Date}] = rec
	return nil
}

func (repo *recordRepository) DeleteRecord(ctx context.Context, studentID string, date attendance.Date) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, recordKey{studentID, date})
	return nil
}

func (repo *recordRepository) DeleteRecordsByStudent(ctx context.Context, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for key := range repo.db.table {
		if key.studentID == studentID {
			delete(repo.db.table, key)
		}
	}
	return nil
}
