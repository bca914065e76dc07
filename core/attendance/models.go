package attendance

import (
	"time"

	"github.com/pkg/errors"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// Date is a calendar day, serialized YYYY-MM-DD.
type Date string

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidDate, "%q", s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t, in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func Today() Date { return DateOf(time.Now()) }

func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

func (d Date) String() string { return string(d) }

func (d *Date) UnmarshalText(text []byte) error {
	dt, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = dt
	return nil
}

// Record holds the statuses of one student for one school day.
// A record with both periods Unset is equivalent to no record and is never stored.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Date      Date      `json:"date"`
	Morning   Status    `json:"morning"`
	Afternoon Status    `json:"afternoon"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (r Record) Status(p Period) Status {
	if p == Afternoon {
		return r.Afternoon
	}
	return r.Morning
}

func (r *Record) setStatus(p Period, s Status) {
	if p == Afternoon {
		r.Afternoon = s
	} else {
		r.Morning = s
	}
}

func (r Record) IsEmpty() bool {
	return r.Morning == Unset && r.Afternoon == Unset
}

// Outcome tells what a status edit did to the stored record.
type Outcome uint8

const (
	Unchanged Outcome = iota
	Created
	Updated
	Deleted
)

var outcomeNames = [...]string{Unchanged: "unchanged", Created: "created", Updated: "updated", Deleted: "deleted"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return ""
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if string(text) == name {
			*o = Outcome(i)
			return nil
		}
	}
	return errors.Errorf("invalid outcome %q", text)
}

// StatusEdit is one period status edit, as sent by the presentation layer.
type StatusEdit struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      Date   `json:"date" validate:"required"`
	Period    Period `json:"period"`
	Status    Status `json:"status"`
}
