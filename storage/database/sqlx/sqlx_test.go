package sqlxrepos_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/notification"
	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/core/tracker"
	"github.com/trezcool/absences/services/email"
	"github.com/trezcool/absences/storage/database"
	"github.com/trezcool/absences/storage/database/sqlx"
	"github.com/trezcool/absences/tests"
)

func setup(t *testing.T) *sqlx.DB {
	conf := testutil.Config()
	conf.Database.Engine = database.EngineSQLite
	conf.Database.Path = filepath.Join(t.TempDir(), "absences.db")

	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func repositories(db *sqlx.DB) tracker.Repositories {
	return tracker.Repositories{
		Students:      sqlxrepos.NewStudentRepository(db),
		Records:       sqlxrepos.NewRecordRepository(db),
		Notifications: sqlxrepos.NewNotificationRepository(db),
		Templates:     sqlxrepos.NewTemplateRepository(db),
	}
}

func TestMigrate(t *testing.T) {
	db := setup(t)
	version, err := database.MigrationVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	// running twice is a no-op
	assert.NoError(t, database.Migrate(db))
}

func TestStudentRepository(t *testing.T) {
	db := setup(t)
	repo := sqlxrepos.NewStudentRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

	emma := student.Student{ID: "s1", FirstName: "Emma", LastName: "Martin", ParentEmail: "parent.martin@email.com", Class: "CP-A", CreatedAt: now, UpdatedAt: now}
	louis := student.Student{ID: "s2", FirstName: "Louis", LastName: "Dubois", ParentEmail: "parent.dubois@email.com", Class: "CP-A", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateStudents(ctx, emma, louis))

	students, err := repo.QueryAllStudents(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []student.Student{emma, louis}, students)

	emma.Class = "CE1-A"
	require.NoError(t, repo.UpdateStudent(ctx, emma))
	assert.ErrorIs(t, repo.UpdateStudent(ctx, student.Student{ID: "unknown"}), student.ErrNotFound)

	require.NoError(t, repo.DeleteStudent(ctx, louis.ID))
	students, err = repo.QueryAllStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.Student{emma}, students)

	// a failing insert leaves nothing behind
	err = repo.CreateStudents(ctx, student.Student{ID: "s3", CreatedAt: now, UpdatedAt: now}, student.Student{ID: "s1", CreatedAt: now, UpdatedAt: now})
	assert.Error(t, err)
	students, _ = repo.QueryAllStudents(ctx)
	assert.Len(t, students, 1)
}

func TestRecordRepository(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	require.NoError(t, sqlxrepos.NewStudentRepository(db).CreateStudents(ctx,
		student.Student{ID: "s1", FirstName: "Emma", LastName: "Martin", ParentEmail: "a@b.co", Class: "CP-A", CreatedAt: now, UpdatedAt: now},
	))
	repo := sqlxrepos.NewRecordRepository(db)

	rec := attendance.Record{ID: "r1", StudentID: "s1", Date: "2024-01-15", Morning: attendance.Unjustified, UpdatedAt: now}
	require.NoError(t, repo.SaveRecord(ctx, rec))

	// upsert by (student, date) keeps the first id
	rec2 := attendance.Record{ID: "r2", StudentID: "s1", Date: "2024-01-15", Morning: attendance.Excused, Afternoon: attendance.Present, Notes: "mot des parents", UpdatedAt: now}
	require.NoError(t, repo.SaveRecord(ctx, rec2))

	recs, err := repo.QueryAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].ID)
	assert.Equal(t, attendance.Excused, recs[0].Morning)
	assert.Equal(t, attendance.Present, recs[0].Afternoon)
	assert.Equal(t, "mot des parents", recs[0].Notes)

	require.NoError(t, repo.SaveRecord(ctx, attendance.Record{ID: "r3", StudentID: "s1", Date: "2024-01-16", Afternoon: attendance.MedicalCertificate, UpdatedAt: now}))
	require.NoError(t, repo.DeleteRecord(ctx, "s1", "2024-01-15"))
	recs, _ = repo.QueryAllRecords(ctx)
	require.Len(t, recs, 1)
	assert.Equal(t, attendance.Date("2024-01-16"), recs[0].Date)
	assert.Empty(t, recs[0].Notes)

	require.NoError(t, repo.DeleteRecordsByStudent(ctx, "s1"))
	recs, _ = repo.QueryAllRecords(ctx)
	assert.Empty(t, recs)
}

func TestNotificationRepositories(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	require.NoError(t, sqlxrepos.NewStudentRepository(db).CreateStudents(ctx,
		student.Student{ID: "s1", FirstName: "Emma", LastName: "Martin", ParentEmail: "a@b.co", Class: "CP-A", CreatedAt: now, UpdatedAt: now},
	))

	repo := sqlxrepos.NewNotificationRepository(db)
	require.NoError(t, repo.CreateEntry(ctx, notification.Entry{ID: "e2", StudentID: "s1", Timestamp: now.Add(time.Hour), Kind: notification.KindReminder}))
	require.NoError(t, repo.CreateEntry(ctx, notification.Entry{ID: "e1", StudentID: "s1", Timestamp: now, Kind: notification.KindAbsence}))
	entries, err := repo.QueryAllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, now, entries[0].Timestamp)

	require.NoError(t, repo.DeleteEntriesByStudent(ctx, "s1"))
	entries, _ = repo.QueryAllEntries(ctx)
	assert.Empty(t, entries)

	tplRepo := sqlxrepos.NewTemplateRepository(db)
	tpl := notification.Template{Kind: notification.KindAlert, Name: "A", Subject: "S {studentName}", Body: "B"}
	require.NoError(t, tplRepo.SaveTemplate(ctx, tpl))
	tpl.Body = "B2"
	require.NoError(t, tplRepo.SaveTemplate(ctx, tpl))
	tpls, err := tplRepo.QueryAllTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []notification.Template{tpl}, tpls)
}

func TestTracker_SQLite(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	conf := testutil.Config()

	trk := tracker.New(conf, repositories(db), emailsvc.NewConsoleServiceMock(conf), testutil.Logger(), core.NewValidator())
	require.NoError(t, trk.Load(ctx))
	emma := testutil.CreateStudent(t, trk, "Emma", "Martin", "parent.martin@email.com", "CP-A")
	testutil.SetStatuses(t, trk, emma.ID, attendance.Unjustified, attendance.Present, testutil.Dates(3)...)
	_, err := trk.Notify(ctx, emma.ID, notification.KindReminder, nil)
	require.NoError(t, err)

	reloaded := tracker.New(conf, repositories(db), emailsvc.NewConsoleServiceMock(conf), testutil.Logger(), core.NewValidator())
	require.NoError(t, reloaded.Load(ctx))
	sum, err := reloaded.Summary(emma.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.Summary{StudentID: emma.ID, TotalPresent: 3, TotalUnjustified: 3}, sum)

	require.NoError(t, reloaded.RemoveStudent(ctx, emma.ID))
	recs, _ := sqlxrepos.NewRecordRepository(db).QueryAllRecords(ctx)
	assert.Empty(t, recs)
	entries, _ := sqlxrepos.NewNotificationRepository(db).QueryAllEntries(ctx)
	assert.Empty(t, entries)
}
