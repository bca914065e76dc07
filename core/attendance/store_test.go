package attendance

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stdA  = "student-a"
	stdB  = "student-b"
	day1  = Date("2024-01-15")
	day2  = Date("2024-01-16")
	day99 = Date("2024-02-01")
)

func TestStore_SetPeriodStatus(t *testing.T) {
	tests := []struct {
		name        string
		existing    *Record
		period      Period
		status      Status
		wantOutcome Outcome
		wantRecord  *Record // nil: no record afterwards
	}{
		{
			name:        "unset without record is a no-op",
			period:      Morning,
			status:      Unset,
			wantOutcome: Unchanged,
		},
		{
			name:        "create morning",
			period:      Morning,
			status:      Unjustified,
			wantOutcome: Created,
			wantRecord:  &Record{Morning: Unjustified, Afternoon: Unset},
		},
		{
			name:        "create afternoon",
			period:      Afternoon,
			status:      Present,
			wantOutcome: Created,
			wantRecord:  &Record{Morning: Unset, Afternoon: Present},
		},
		{
			name:        "overwrite keeps other period",
			existing:    &Record{Morning: Unjustified, Afternoon: Present},
			period:      Morning,
			status:      Excused,
			wantOutcome: Updated,
			wantRecord:  &Record{Morning: Excused, Afternoon: Present},
		},
		{
			name:        "unset one period of two",
			existing:    &Record{Morning: Unjustified, Afternoon: Present},
			period:      Afternoon,
			status:      Unset,
			wantOutcome: Updated,
			wantRecord:  &Record{Morning: Unjustified, Afternoon: Unset},
		},
		{
			name:        "unset last period collapses the record",
			existing:    &Record{Morning: Unjustified, Afternoon: Unset},
			period:      Morning,
			status:      Unset,
			wantOutcome: Deleted,
		},
		{
			name:        "same status",
			existing:    &Record{Morning: MedicalCertificate},
			period:      Morning,
			status:      MedicalCertificate,
			wantOutcome: Unchanged,
			wantRecord:  &Record{Morning: MedicalCertificate},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			if tt.existing != nil {
				rec := *tt.existing
				rec.StudentID, rec.Date = stdA, day1
				s.Load(rec)
			}

			outcome, rec, err := s.SetPeriodStatus(stdA, day1, tt.period, tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, outcome)

			got, ok := s.Get(stdA, day1)
			if tt.wantRecord == nil {
				assert.False(t, ok)
				assert.Equal(t, Record{}, rec)
				assert.Equal(t, 0, s.Len())
				return
			}
			require.True(t, ok)
			assert.Equal(t, got, rec)
			assert.Equal(t, tt.wantRecord.Morning, got.Morning)
			assert.Equal(t, tt.wantRecord.Afternoon, got.Afternoon)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestStore_SetPeriodStatus_Invalid(t *testing.T) {
	s := NewStore()

	_, _, err := s.SetPeriodStatus(stdA, day1, Morning, Status(42))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, _, err = s.SetPeriodStatus(stdA, day1, Period(7), Present)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Equal(t, 0, s.Len())
}

// A record exists iff at least one of its periods is not Unset.
func TestStore_RecordExistsIffNotEmpty(t *testing.T) {
	s := NewStore()
	edits := []struct {
		period Period
		status Status
	}{
		{Morning, Present}, {Afternoon, Unjustified}, {Morning, Unset}, {Afternoon, Excused},
		{Afternoon, Unset}, {Afternoon, Unset}, {Morning, MedicalCertificate}, {Morning, Unset},
		{Afternoon, Present}, {Morning, Unjustified},
	}
	for i, e := range edits {
		_, _, err := s.SetPeriodStatus(stdA, day1, e.period, e.status)
		require.NoError(t, err)

		rec, ok := s.Get(stdA, day1)
		if ok {
			assert.False(t, rec.IsEmpty(), "edit #%d left an all-unset record", i)
		}
		for r := range s.RecordsForStudent(stdA) {
			assert.False(t, r.IsEmpty(), "edit #%d", i)
		}
		assert.LessOrEqual(t, s.Len(), 1)
	}
}

func TestStore_SetNotes(t *testing.T) {
	s := NewStore()

	_, err := s.SetNotes(stdA, day1, "sick")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, _, err = s.SetPeriodStatus(stdA, day1, Morning, Unjustified)
	require.NoError(t, err)
	rec, err := s.SetNotes(stdA, day1, "sick")
	require.NoError(t, err)
	assert.Equal(t, "sick", rec.Notes)

	// collapsing the record drops its notes
	_, _, err = s.SetPeriodStatus(stdA, day1, Morning, Unset)
	require.NoError(t, err)
	_, ok := s.Get(stdA, day1)
	assert.False(t, ok)
}

func TestStore_Restore(t *testing.T) {
	s := NewStore()
	_, _, err := s.SetPeriodStatus(stdA, day1, Morning, Excused)
	require.NoError(t, err)
	before, err := s.SetNotes(stdA, day1, "sick")
	require.NoError(t, err)

	outcome, _, err := s.SetPeriodStatus(stdA, day1, Morning, Unset)
	require.NoError(t, err)
	require.Equal(t, Deleted, outcome)
	s.Restore(stdA, day1, before, true)
	got, ok := s.Get(stdA, day1)
	require.True(t, ok)
	assert.Equal(t, before, got)

	outcome, _, err = s.SetPeriodStatus(stdB, day2, Afternoon, Unjustified)
	require.NoError(t, err)
	require.Equal(t, Created, outcome)
	s.Restore(stdB, day2, Record{}, false)
	_, ok = s.Get(stdB, day2)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Load(t *testing.T) {
	s := NewStore()
	s.Load(
		Record{StudentID: stdA, Date: day1, Morning: Present},
		Record{StudentID: stdA, Date: day2}, // all unset: dropped
		Record{StudentID: stdB, Date: day1, Afternoon: Excused},
	)
	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(stdA, day2)
	assert.False(t, ok)

	s.Load()
	assert.Equal(t, 0, s.Len())
}

func TestStore_Views(t *testing.T) {
	s := NewStore()
	s.Load(
		Record{ID: "1", StudentID: stdA, Date: day1, Morning: Present},
		Record{ID: "2", StudentID: stdA, Date: day2, Morning: Unjustified},
		Record{ID: "3", StudentID: stdB, Date: day1, Afternoon: Excused},
	)

	ids := func(recs []Record) []string {
		r := make([]string, 0, len(recs))
		for _, rec := range recs {
			r = append(r, rec.ID)
		}
		slices.Sort(r)
		return r
	}

	assert.Equal(t, []string{"1", "2"}, ids(slices.Collect(s.RecordsForStudent(stdA))))
	assert.Equal(t, []string{"1", "3"}, ids(slices.Collect(s.RecordsForDate(day1))))
	assert.Empty(t, slices.Collect(s.RecordsForDate(day99)))
	assert.Empty(t, slices.Collect(s.RecordsForStudent("nobody")))
}

func TestStore_DeleteAllForStudent(t *testing.T) {
	s := NewStore()
	s.Load(
		Record{StudentID: stdA, Date: day1, Morning: Present},
		Record{StudentID: stdA, Date: day2, Morning: Unjustified},
		Record{StudentID: stdB, Date: day1, Afternoon: Excused},
	)

	assert.Equal(t, 2, s.DeleteAllForStudent(stdA))
	assert.Empty(t, slices.Collect(s.RecordsForStudent(stdA)))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.DeleteAllForStudent(stdA))
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "", want: Unset},
		{in: "present", want: Present},
		{in: "P", want: Present},
		{in: "Excused", want: Excused},
		{in: "e", want: Excused},
		{in: "medical", want: MedicalCertificate},
		{in: "M", want: MedicalCertificate},
		{in: "unjustified", want: Unjustified},
		{in: "O", want: Unjustified},
		{in: "late", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, day1, d)

	_, err = ParseDate("15/01/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
