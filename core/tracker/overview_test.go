package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/core/tracker"
	"github.com/trezcool/absences/tests"
)

func intPtr(n int) *int { return &n }

func TestTracker_Overview(t *testing.T) {
	trk, _, _ := testutil.NewTracker(t)
	emma := testutil.CreateStudent(t, trk, "Emma", "Martin", "parent.martin@email.com", "CP-A")
	louis := testutil.CreateStudent(t, trk, "Louis", "Dubois", "parent.dubois@email.com", "CP-A")
	chloe := testutil.CreateStudent(t, trk, "Chloé", "Bernard", "parent.bernard@email.com", "CE1-B")
	jules := testutil.CreateStudent(t, trk, "Jules", "Petit", "parent.petit@email.com", "CE1-B")

	dates := testutil.Dates(6)
	// emma: 10 unjustified (in alert), 2 present
	testutil.SetStatuses(t, trk, emma.ID, attendance.Unjustified, attendance.Unset, dates[:5]...)
	testutil.SetStatuses(t, trk, emma.ID, attendance.Present, attendance.Present, dates[5])
	// louis: 2 unjustified, 4 excused, 6 present
	testutil.SetStatuses(t, trk, louis.ID, attendance.Excused, attendance.Excused, dates[:2]...)
	testutil.SetStatuses(t, trk, louis.ID, attendance.Unjustified, attendance.Present, dates[2:4]...)
	testutil.SetStatuses(t, trk, louis.ID, attendance.Present, attendance.Present, dates[4:]...)
	// chloe: 2 unjustified, 2 medical
	testutil.SetStatuses(t, trk, chloe.ID, attendance.MedicalCertificate, attendance.Unjustified, dates[:2]...)
	// jules: nothing

	ids := func(ov tracker.Overview) []string {
		r := make([]string, 0, len(ov.Students))
		for _, row := range ov.Students {
			r = append(r, row.ID)
		}
		return r
	}

	tests := []struct {
		name  string
		query tracker.OverviewQuery
		want  []string
	}{
		{
			name: "default: unjustified desc then name",
			want: []string{emma.ID, chloe.ID, louis.ID, jules.ID},
		},
		{
			name:  "name asc",
			query: tracker.OverviewQuery{Orderings: core.ParseOrderings("name")},
			want:  []string{chloe.ID, louis.ID, emma.ID, jules.ID},
		},
		{
			name:  "class desc",
			query: tracker.OverviewQuery{Orderings: core.ParseOrderings("-class")},
			want:  []string{louis.ID, emma.ID, chloe.ID, jules.ID},
		},
		{
			name:  "present desc",
			query: tracker.OverviewQuery{Orderings: core.ParseOrderings("-present")},
			want:  []string{louis.ID, emma.ID, chloe.ID, jules.ID},
		},
		{
			name:  "medical asc",
			query: tracker.OverviewQuery{Orderings: core.ParseOrderings("medical")},
			want:  []string{louis.ID, emma.ID, jules.ID, chloe.ID},
		},
		{
			name:  "class filter",
			query: tracker.OverviewQuery{Filter: student.QueryFilter{Class: "CE1-B"}},
			want:  []string{chloe.ID, jules.ID},
		},
		{
			name:  "unjustified range",
			query: tracker.OverviewQuery{Ranges: map[tracker.Column]tracker.Range{tracker.ColumnUnjustified: {Min: intPtr(1), Max: intPtr(5)}}},
			want:  []string{chloe.ID, louis.ID},
		},
		{
			name:  "excused min",
			query: tracker.OverviewQuery{Ranges: map[tracker.Column]tracker.Range{tracker.ColumnExcused: {Min: intPtr(1)}}},
			want:  []string{louis.ID},
		},
		{
			name:  "alerts only",
			query: tracker.OverviewQuery{AlertsOnly: true},
			want:  []string{emma.ID},
		},
		{
			name:  "search",
			query: tracker.OverviewQuery{Filter: student.QueryFilter{Search: "petit"}},
			want:  []string{jules.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.query.Validate())
			ov := trk.Overview(tt.query)
			assert.Equal(t, tt.want, ids(ov))
			assert.Equal(t, tracker.Stats{
				TotalStudents:      4,
				StudentsWithAlerts: 1,
				TotalUnjustified:   14,
				TotalPresent:       8,
				AlertThreshold:     8,
			}, ov.Stats)
		})
	}

	row := trk.Overview(tracker.OverviewQuery{})
	assert.True(t, row.Students[0].InAlert)
	assert.Equal(t, attendance.Summary{StudentID: emma.ID, TotalPresent: 2, TotalUnjustified: 10}, row.Students[0].Summary)

	alerts := trk.PendingAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, emma.ID, alerts[0].ID)
}

func TestOverviewQuery_Validate(t *testing.T) {
	q := tracker.OverviewQuery{
		Orderings: core.ParseOrderings("-unjustified,age"),
		Ranges:    map[tracker.Column]tracker.Range{tracker.ColumnName: {}},
	}
	err := q.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrInvalidColumn)
	vErr := err.(*core.ValidationError)
	assert.Len(t, vErr.Fields, 2)
}
