package attendance

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrRecordNotFound = errors.New("attendance record not found")

// Repository persists attendance records. SaveRecord is an upsert keyed by (StudentID, Date).
type Repository interface {
	QueryAllRecords(ctx context.Context) ([]Record, error)
	SaveRecord(ctx context.Context, rec Record) error
	DeleteRecord(ctx context.Context, studentID string, date Date) error
	DeleteRecordsByStudent(ctx context.Context, studentID string) error
}

// Store keeps the attendance records of every student, at most one per (student, date).
type Store struct {
	mu      sync.RWMutex
	records map[string]map[Date]*Record
	nowFunc func() time.Time
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]map[Date]*Record),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Load replaces the store content with recs. All-unset records are dropped.
func (s *Store) Load(recs ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]map[Date]*Record)
	for _, rec := range recs {
		if rec.IsEmpty() {
			continue
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		s.put(rec)
	}
}

func (s *Store) put(rec Record) {
	byDate, ok := s.records[rec.StudentID]
	if !ok {
		byDate = make(map[Date]*Record)
		s.records[rec.StudentID] = byDate
	}
	byDate[rec.Date] = &rec
}

func (s *Store) get(studentID string, date Date) (*Record, bool) {
	rec, ok := s.records[studentID][date]
	return rec, ok
}

func (s *Store) delete(studentID string, date Date) {
	byDate := s.records[studentID]
	delete(byDate, date)
	if len(byDate) == 0 {
		delete(s.records, studentID)
	}
}

// SetPeriodStatus merges one period status into the (studentID, date) record:
//   - an existing record gets the period overwritten, and is deleted if both periods end up Unset;
//   - without a record, Unset is a no-op and any other status creates a record with the other period Unset.
//
// It returns what happened and the resulting record (zero Record when none remains).
func (s *Store) SetPeriodStatus(studentID string, date Date, period Period, status Status) (Outcome, Record, error) {
	if !status.Valid() {
		return Unchanged, Record{}, ErrInvalidStatus
	}
	if !period.Valid() {
		return Unchanged, Record{}, ErrInvalidPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.get(studentID, date)
	if !ok {
		if status == Unset {
			return Unchanged, Record{}, nil
		}
		nr := Record{
			ID:        uuid.NewString(),
			StudentID: studentID,
			Date:      date,
			UpdatedAt: s.nowFunc(),
		}
		nr.setStatus(period, status)
		s.put(nr)
		return Created, nr, nil
	}

	if rec.Status(period) == status {
		return Unchanged, *rec, nil
	}
	rec.setStatus(period, status)
	rec.UpdatedAt = s.nowFunc()
	if rec.IsEmpty() {
		s.delete(studentID, date)
		return Deleted, Record{}, nil
	}
	return Updated, *rec, nil
}

// SetNotes sets the free text notes of an existing record.
func (s *Store) SetNotes(studentID string, date Date, notes string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.get(studentID, date)
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	rec.Notes = notes
	rec.UpdatedAt = s.nowFunc()
	return *rec, nil
}

// Restore puts back the (studentID, date) record as Get returned it before an edit.
// When existed is false the record is removed.
func (s *Store) Restore(studentID string, date Date, prev Record, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !existed {
		s.delete(studentID, date)
		return
	}
	s.put(prev)
}

// Get returns the (studentID, date) record, if any.
func (s *Store) Get(studentID string, date Date) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.get(studentID, date); ok {
		return *rec, true
	}
	return Record{}, false
}

// RecordsForStudent yields every record of the student, in no particular order.
func (s *Store) RecordsForStudent(studentID string) iter.Seq[Record] {
	s.mu.RLock()
	snapshot := make([]Record, 0, len(s.records[studentID]))
	for _, rec := range s.records[studentID] {
		snapshot = append(snapshot, *rec)
	}
	s.mu.RUnlock()

	return slices.Values(snapshot)
}

// RecordsForDate yields the records of every student for date, in no particular order.
func (s *Store) RecordsForDate(date Date) iter.Seq[Record] {
	s.mu.RLock()
	snapshot := make([]Record, 0, len(s.records))
	for _, byDate := range s.records {
		if rec, ok := byDate[date]; ok {
			snapshot = append(snapshot, *rec)
		}
	}
	s.mu.RUnlock()

	return slices.Values(snapshot)
}

// DeleteAllForStudent removes every record of the student and returns how many were removed.
func (s *Store) DeleteAllForStudent(studentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records[studentID])
	delete(s.records, studentID)
	return n
}

// Summarize rolls up the current records of the student.
func (s *Store) Summarize(studentID string) Summary {
	return Summarize(studentID, s.RecordsForStudent(studentID))
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, byDate := range s.records {
		n += len(byDate)
	}
	return n
}
