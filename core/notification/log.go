package notification

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Kind is the kind of message sent to parents.
type Kind string

const (
	KindAbsence  Kind = "absence"
	KindAlert    Kind = "alert"
	KindReminder Kind = "reminder"
)

var (
	Kinds = []Kind{KindAbsence, KindAlert, KindReminder}

	ErrInvalidKind = errors.New("invalid notification kind")
)

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", errors.Wrapf(ErrInvalidKind, "%q", s)
	}
	return k, nil
}

func (k Kind) Valid() bool { return slices.Contains(Kinds, k) }

func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Entry records that a message was dispatched to a student's parents.
type Entry struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Timestamp time.Time `json:"timestamp"` // UTC
	Kind      Kind      `json:"kind"`
}

type Repository interface {
	QueryAllEntries(ctx context.Context) ([]Entry, error)
	CreateEntry(ctx context.Context, entry Entry) error
	DeleteEntriesByStudent(ctx context.Context, studentID string) error
}

// Log is the append-only dispatch history. Entries only go away with their student.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewLog() *Log {
	return &Log{}
}

// Load replaces the log content with entries.
func (l *Log) Load(entries ...Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = slices.Clone(entries)
}

func (l *Log) append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// EntriesForStudent returns the entries of the student, oldest first.
func (l *Log) EntriesForStudent(studentID string) []Entry {
	l.mu.RLock()
	entries := make([]Entry, 0)
	for _, e := range l.entries {
		if e.StudentID == studentID {
			entries = append(entries, e)
		}
	}
	l.mu.RUnlock()

	slices.SortStableFunc(entries, func(a, b Entry) int { return a.Timestamp.Compare(b.Timestamp) })
	return entries
}

// LastEntry returns the most recent entry of the given kind for the student.
func (l *Log) LastEntry(studentID string, kind Kind) (Entry, bool) {
	entries := l.EntriesForStudent(studentID)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == kind {
			return entries[i], true
		}
	}
	return Entry{}, false
}

// DeleteAllForStudent removes every entry of the student and returns how many were removed.
func (l *Log) DeleteAllForStudent(studentID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	l.entries = slices.DeleteFunc(l.entries, func(e Entry) bool { return e.StudentID == studentID })
	return n - len(l.entries)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
