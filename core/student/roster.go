package student

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound         = errors.New("student not found")
	ErrDuplicateContact = errors.New("a student with this parent contact already exists")
)

type (
	Repository interface {
		QueryAllStudents(ctx context.Context) ([]Student, error)
		CreateStudents(ctx context.Context, students ...Student) error
		UpdateStudent(ctx context.Context, std Student) error
		DeleteStudent(ctx context.Context, id string) error
	}

	// Dependent is anything holding per-student data that must go away with the student.
	Dependent interface {
		DeleteAllForStudent(studentID string) int
	}

	// BulkResult tells which students of a bulk add were added and which were skipped
	// because their contact was already on the roster.
	BulkResult struct {
		Added   []Student `json:"added"`
		Skipped []Student `json:"skipped"`
	}

	// Roster is the set of known students. Parent contacts are unique, case-insensitively.
	Roster struct {
		mu         sync.RWMutex
		students   map[string]*Student
		dependents []Dependent
		nowFunc    func() time.Time
	}
)

// NewRoster returns an empty roster; removing a student cascades into deps.
func NewRoster(deps ...Dependent) *Roster {
	return &Roster{
		students:   make(map[string]*Student),
		dependents: deps,
		nowFunc:    func() time.Time { return time.Now().UTC() },
	}
}

// Load replaces the roster content with students, as they are.
func (r *Roster) Load(students ...Student) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.students = make(map[string]*Student, len(students))
	for _, std := range students {
		r.students[std.ID] = &std
	}
}

func (r *Roster) contactExists(contact string, excludedID string) bool {
	for id, std := range r.students {
		if id != excludedID && strings.EqualFold(std.ParentEmail, contact) {
			return true
		}
	}
	return false
}

func (r *Roster) create(std Student) Student {
	now := r.nowFunc()
	if std.ID == "" {
		std.ID = uuid.NewString()
	}
	std.CreatedAt = now
	std.UpdatedAt = now
	r.students[std.ID] = &std
	return std
}

// Add adds std to the roster, unless its parent contact is already known.
func (r *Roster) Add(std Student) (Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contactExists(std.ParentEmail, "") {
		return Student{}, ErrDuplicateContact
	}
	return r.create(std), nil
}

// AddBulk adds every student whose contact is not already on the roster.
// Students of the same batch are not checked against each other.
func (r *Roster) AddBulk(students []Student) BulkResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res BulkResult
	existing := make(map[string]struct{}, len(r.students))
	for _, std := range r.students {
		existing[strings.ToLower(std.ParentEmail)] = struct{}{}
	}
	for _, std := range students {
		if _, dup := existing[strings.ToLower(std.ParentEmail)]; dup {
			res.Skipped = append(res.Skipped, std)
			continue
		}
		res.Added = append(res.Added, r.create(std))
	}
	return res
}

// Update merges the set fields of patch into the student.
func (r *Roster) Update(id string, patch UpdateStudent) (Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	std, ok := r.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	if patch.ParentEmail != nil && r.contactExists(*patch.ParentEmail, id) {
		return Student{}, ErrDuplicateContact
	}

	updated := *std
	patch.apply(&updated)
	updated.UpdatedAt = r.nowFunc()
	r.students[id] = &updated
	return updated, nil
}

// Remove removes the student, then every record depending on it.
func (r *Roster) Remove(id string) (Student, error) {
	r.mu.Lock()
	std, ok := r.students[id]
	if ok {
		delete(r.students, id)
	}
	r.mu.Unlock()

	if !ok {
		return Student{}, ErrNotFound
	}
	for _, dep := range r.dependents {
		dep.DeleteAllForStudent(id)
	}
	return *std, nil
}

func (r *Roster) Get(id string) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if std, ok := r.students[id]; ok {
		return *std, nil
	}
	return Student{}, ErrNotFound
}

func (r *Roster) snapshot() []Student {
	r.mu.RLock()
	defer r.mu.RUnlock()

	students := make([]Student, 0, len(r.students))
	for _, std := range r.students {
		students = append(students, *std)
	}
	return students
}

// List yields every student, in no particular order.
func (r *Roster) List() iter.Seq[Student] {
	return slices.Values(r.snapshot())
}

// Filter returns the students matching filter, sorted by last name then first name.
func (r *Roster) Filter(filter QueryFilter) []Student {
	filter.Clean()
	students := make([]Student, 0)
	for _, std := range r.snapshot() {
		if filter.Match(std) {
			students = append(students, std)
		}
	}
	SortByName(students)
	return students
}

func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.students)
}

// SortByName sorts students by last name, first name, then id, case-insensitively.
func SortByName(students []Student) {
	slices.SortFunc(students, func(a, b Student) int {
		if c := CompareNames(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func CompareNames(a, b Student) int {
	if c := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName))
}
