package attendance

import "iter"

// Summary is the per-student tally of half-day statuses.
type Summary struct {
	StudentID        string `json:"student_id"`
	TotalPresent     int    `json:"total_present"`
	TotalExcused     int    `json:"total_excused"`
	TotalMedical     int    `json:"total_medical"`
	TotalUnjustified int    `json:"total_unjustified"`
}

// Summarize counts both periods of every record in recs.
// Unset periods count as unjustified. Summaries are computed on demand, never cached.
func Summarize(studentID string, recs iter.Seq[Record]) Summary {
	sum := Summary{StudentID: studentID}
	for rec := range recs {
		sum.add(rec.Morning)
		sum.add(rec.Afternoon)
	}
	return sum
}

func (sum *Summary) add(s Status) {
	switch {
	case s == Present:
		sum.TotalPresent++
	case s == Excused:
		sum.TotalExcused++
	case s == MedicalCertificate:
		sum.TotalMedical++
	case s.IsUnjustified():
		sum.TotalUnjustified++
	}
}

// Total returns the number of counted half-days.
func (sum Summary) Total() int {
	return sum.TotalPresent + sum.TotalExcused + sum.TotalMedical + sum.TotalUnjustified
}
