package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/absences/core/attendance"
)

// Trigger decides when a student is in alert and logs the messages dispatched to parents.
type Trigger struct {
	threshold int
	log       *Log
	nowFunc   func() time.Time
}

// NewTrigger returns a Trigger alerting above threshold unjustified half-days.
func NewTrigger(threshold int, log *Log) *Trigger {
	return &Trigger{
		threshold: threshold,
		log:       log,
		nowFunc:   func() time.Time { return time.Now().UTC() },
	}
}

func (t *Trigger) AlertThreshold() int { return t.threshold }

func (t *Trigger) Log() *Log { return t.log }

// IsInAlert reports whether the student has strictly more unjustified half-days than the threshold.
func (t *Trigger) IsInAlert(sum attendance.Summary) bool {
	return sum.TotalUnjustified > t.threshold
}

// LogDispatch appends a dispatch entry stamped with the current time.
func (t *Trigger) LogDispatch(studentID string, kind Kind) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Timestamp: t.nowFunc(),
		Kind:      kind,
	}
	t.log.append(entry)
	return entry
}

func (t *Trigger) EntriesForStudent(studentID string) []Entry {
	return t.log.EntriesForStudent(studentID)
}
