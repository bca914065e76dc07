package student

import (
	"strings"
	"time"

	"github.com/trezcool/absences/core"
)

type Student struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	ParentEmail string    `json:"parent_email"`
	Class       string    `json:"class"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName   string `json:"first_name" validate:"required,notblank"`
	LastName    string `json:"last_name" validate:"required,notblank"`
	ParentEmail string `json:"parent_email" validate:"required,contact"`
	Class       string `json:"class" validate:"required,notblank"`
}

func (ns *NewStudent) Validate(v *core.Validator) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)
	ns.Class = core.CleanString(ns.Class)

	return v.Struct(ns)
}

func (ns NewStudent) Student() Student {
	return Student{
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		ParentEmail: ns.ParentEmail,
		Class:       ns.Class,
	}
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil or blank fields are left untouched.
type UpdateStudent struct {
	FirstName   *string `json:"first_name" validate:"omitempty,notblank"`
	LastName    *string `json:"last_name" validate:"omitempty,notblank"`
	ParentEmail *string `json:"parent_email" validate:"omitempty,contact"`
	Class       *string `json:"class" validate:"omitempty,notblank"`
}

func (us *UpdateStudent) Validate(v *core.Validator) error {
	clean := func(s *string, lower bool) *string {
		if s == nil {
			return nil
		}
		c := core.CleanString(*s, lower)
		if c == "" {
			return nil
		}
		return &c
	}
	us.FirstName = clean(us.FirstName, false)
	us.LastName = clean(us.LastName, false)
	us.ParentEmail = clean(us.ParentEmail, true /* lower */)
	us.Class = clean(us.Class, false)

	return v.Struct(us)
}

func (us UpdateStudent) IsEmpty() bool {
	return us.FirstName == nil && us.LastName == nil && us.ParentEmail == nil && us.Class == nil
}

// apply merges the set fields of us into s.
func (us UpdateStudent) apply(s *Student) {
	if us.FirstName != nil {
		s.FirstName = *us.FirstName
	}
	if us.LastName != nil {
		s.LastName = *us.LastName
	}
	if us.ParentEmail != nil {
		s.ParentEmail = *us.ParentEmail
	}
	if us.Class != nil {
		s.Class = *us.Class
	}
}

type QueryFilter struct {
	Search string `query:"search"`
	Class  string `query:"class"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Class == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
}

// Match reports whether s satisfies every set field of qf.
// Search is a case-insensitive match on the full name or the parent contact; Class is an exact, case-insensitive match.
func (qf QueryFilter) Match(s Student) bool {
	if qf.Class != "" && !strings.EqualFold(s.Class, qf.Class) {
		return false
	}
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		return strings.Contains(strings.ToLower(s.FullName()), search) ||
			strings.Contains(strings.ToLower(s.LastName+" "+s.FirstName), search) ||
			strings.Contains(strings.ToLower(s.ParentEmail), search)
	}
	return true
}
