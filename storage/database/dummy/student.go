package dummydb

import (
	"context"

	"github.com/trezcool/absences/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.table))
	for _, std := range repo.db.table {
		students = append(students, std)
	}
	return students, nil
}

func (repo *studentRepository) CreateStudents(ctx context.Context, students ...student.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, std := range students {
		repo.db.table[std.ID] = std
	}
	return nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[std.ID]; !ok {
		return student.ErrNotFound
	}
	repo.db.table[std.ID] = std
	return nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	return nil
}
