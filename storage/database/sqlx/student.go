package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/absences/core/student"
)

type (
	studentRow struct {
		ID          string    `db:"id"`
		FirstName   string    `db:"first_name"`
		LastName    string    `db:"last_name"`
		ParentEmail string    `db:"parent_email"`
		Class       string    `db:"class"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	studentRepository struct {
		db *sqlx.DB
	}
)

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func newStudentRow(std student.Student) studentRow {
	return studentRow{
		ID:          std.ID,
		FirstName:   std.FirstName,
		LastName:    std.LastName,
		ParentEmail: std.ParentEmail,
		Class:       std.Class,
		CreatedAt:   std.CreatedAt.UTC(),
		UpdatedAt:   std.UpdatedAt.UTC(),
	}
}

func (row studentRow) student() student.Student {
	return student.Student{
		ID:          row.ID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		ParentEmail: row.ParentEmail,
		Class:       row.Class,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	q := `SELECT id, first_name, last_name, parent_email, class, created_at, updated_at FROM students`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

// CreateStudents inserts every student in one transaction.
func (repo *studentRepository) CreateStudents(ctx context.Context, students ...student.Student) error {
	if len(students) == 0 {
		return nil
	}
	q := `INSERT INTO students (id, first_name, last_name, parent_email, class, created_at, updated_at)
		VALUES (:id, :first_name, :last_name, :parent_email, :class, :created_at, :updated_at)`

	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, std := range students {
			if _, err := tx.NamedExecContext(ctx, q, newStudentRow(std)); err != nil {
				return errors.Wrapf(err, "inserting student %s", std.ID)
			}
		}
		return nil
	})
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) error {
	q := `UPDATE students
		SET first_name = :first_name, last_name = :last_name, parent_email = :parent_email, class = :class, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newStudentRow(std))
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	q := repo.db.Rebind(`DELETE FROM students WHERE id = ?`)
	if _, err := repo.db.ExecContext(ctx, q, id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return nil
}

func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
