package importer

import (
	"iter"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/absences/core/student"
)

// minNameSimilarity is the ratio above which two full names are reported as probably the same child.
const minNameSimilarity = .9

// Warning flags an imported student whose name is close to a student already on the roster
// under another parent contact. Warnings never block an import.
type Warning struct {
	Row      int             `json:"row"`
	Name     string          `json:"name"`
	Existing student.Student `json:"existing"`
	Ratio    float64         `json:"ratio"`
}

func nameRatio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// SimilarNames compares every parsed student to the existing ones.
func SimilarNames(parsed Result, existing iter.Seq[student.Student]) []Warning {
	var known []student.Student
	for std := range existing {
		known = append(known, std)
	}

	var warnings []Warning
	for i, ns := range parsed.Students {
		name := ns.Student().FullName()
		for _, std := range known {
			if strings.EqualFold(std.ParentEmail, ns.ParentEmail) {
				continue
			}
			if ratio := nameRatio(name, std.FullName()); ratio >= minNameSimilarity {
				row := 0
				if i < len(parsed.Rows) {
					row = parsed.Rows[i]
				}
				warnings = append(warnings, Warning{Row: row, Name: name, Existing: std, Ratio: ratio})
			}
		}
	}
	return warnings
}
