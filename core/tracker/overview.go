package tracker

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/student"
)

// Column is a sortable dashboard column.
type Column string

const (
	ColumnName        Column = "name"
	ColumnClass       Column = "class"
	ColumnPresent     Column = "present"
	ColumnExcused     Column = "excused"
	ColumnMedical     Column = "medical"
	ColumnUnjustified Column = "unjustified"
)

var (
	Columns = []Column{ColumnName, ColumnClass, ColumnPresent, ColumnExcused, ColumnMedical, ColumnUnjustified}

	// CountColumns are the columns that can be filtered with a Range.
	CountColumns = []Column{ColumnPresent, ColumnExcused, ColumnMedical, ColumnUnjustified}

	ErrInvalidColumn = errors.New("invalid column")

	defaultOrderings = []core.Ordering{{Field: string(ColumnUnjustified), Ascending: false}}
)

func (c Column) Valid() bool { return slices.Contains(Columns, c) }

// Range bounds a count column, both ends inclusive. Nil ends are open.
type Range struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

func (r Range) contains(n int) bool {
	return (r.Min == nil || n >= *r.Min) && (r.Max == nil || n <= *r.Max)
}

type (
	// OverviewQuery selects and orders the rows of a dashboard.
	OverviewQuery struct {
		Filter     student.QueryFilter
		Orderings  []core.Ordering // defaults to unjustified desc; name asc always breaks ties
		Ranges     map[Column]Range
		AlertsOnly bool
	}

	StudentOverview struct {
		student.Student
		Summary attendance.Summary `json:"summary"`
		InAlert bool               `json:"in_alert"`
	}

	// Stats are computed over the whole roster, whatever the query.
	Stats struct {
		TotalStudents      int `json:"total_students"`
		StudentsWithAlerts int `json:"students_with_alerts"`
		TotalUnjustified   int `json:"total_unjustified"`
		TotalPresent       int `json:"total_present"`
		AlertThreshold     int `json:"alert_threshold"`
	}

	Overview struct {
		Stats    Stats             `json:"stats"`
		Students []StudentOverview `json:"students"`
	}
)

// Validate checks that every ordering and range refers to a known column.
func (q OverviewQuery) Validate() error {
	var flds []core.FieldError
	for _, ord := range q.Orderings {
		if !Column(ord.Field).Valid() {
			flds = append(flds, core.FieldError{Field: "sort", Error: "unknown column " + ord.Field})
		}
	}
	for col := range q.Ranges {
		if !slices.Contains(CountColumns, col) {
			flds = append(flds, core.FieldError{Field: string(col), Error: "not a count column"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(ErrInvalidColumn, flds...)
	}
	return nil
}

func count(sum attendance.Summary, col Column) int {
	switch col {
	case ColumnPresent:
		return sum.TotalPresent
	case ColumnExcused:
		return sum.TotalExcused
	case ColumnMedical:
		return sum.TotalMedical
	case ColumnUnjustified:
		return sum.TotalUnjustified
	}
	return 0
}

func compareColumn(a, b StudentOverview, col Column) int {
	switch col {
	case ColumnName:
		return student.CompareNames(a.Student, b.Student)
	case ColumnClass:
		return strings.Compare(strings.ToLower(a.Class), strings.ToLower(b.Class))
	default:
		return cmp.Compare(count(a.Summary, col), count(b.Summary, col))
	}
}

// Overview summarizes every student matching q, sorted, along with roster wide stats.
func (t *Tracker) Overview(q OverviewQuery) Overview {
	q.Filter.Clean()
	orderings := q.Orderings
	if len(orderings) == 0 {
		orderings = defaultOrderings
	}

	ov := Overview{
		Stats:    Stats{AlertThreshold: t.trigger.AlertThreshold()},
		Students: make([]StudentOverview, 0),
	}
	for std := range t.roster.List() {
		sum := t.store.Summarize(std.ID)
		row := StudentOverview{Student: std, Summary: sum, InAlert: t.trigger.IsInAlert(sum)}

		ov.Stats.TotalStudents++
		ov.Stats.TotalUnjustified += sum.TotalUnjustified
		ov.Stats.TotalPresent += sum.TotalPresent
		if row.InAlert {
			ov.Stats.StudentsWithAlerts++
		}

		if q.AlertsOnly && !row.InAlert {
			continue
		}
		if !q.Filter.Match(std) {
			continue
		}
		inRanges := true
		for col, rng := range q.Ranges {
			if !rng.contains(count(sum, col)) {
				inRanges = false
				break
			}
		}
		if inRanges {
			ov.Students = append(ov.Students, row)
		}
	}

	slices.SortFunc(ov.Students, func(a, b StudentOverview) int {
		for _, ord := range orderings {
			c := compareColumn(a, b, Column(ord.Field))
			if !ord.Ascending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		if c := student.CompareNames(a.Student, b.Student); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return ov
}
