package testutil

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/core/tracker"
	"github.com/trezcool/absences/services/email"
	"github.com/trezcool/absences/services/logger"
	"github.com/trezcool/absences/storage/database/dummy"
)

// Config returns the configuration used by tests.
func Config() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Absences",
		DefaultFromEmail: "noreply@school.test",
		Mailer:           "console",
		AlertThreshold:   core.DefaultAlertThreshold,
		Database:         core.DatabaseConfig{Engine: "memory"},
	}
}

// Logger returns a logger that writes nowhere.
func Logger() core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), Config())
	l.Enable(false)
	return l
}

// Repositories returns tracker repositories backed by db.
func Repositories(db *dummydb.DB) tracker.Repositories {
	return tracker.Repositories{
		Students:      dummydb.NewStudentRepository(db),
		Records:       dummydb.NewRecordRepository(db),
		Notifications: dummydb.NewNotificationRepository(db),
		Templates:     dummydb.NewTemplateRepository(db),
	}
}

// NewTracker returns a loaded tracker over a fresh in-memory database.
func NewTracker(t *testing.T) (*tracker.Tracker, *dummydb.DB, *emailsvc.ConsoleService) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("NewTracker() failed: %v", err)
	}
	conf := Config()
	mailer := emailsvc.NewConsoleServiceMock(conf)
	trk := tracker.New(conf, Repositories(db), mailer, Logger(), core.NewValidator())
	if err = trk.Load(context.Background()); err != nil {
		t.Fatalf("NewTracker() failed: %v", err)
	}
	return trk, db, mailer
}

func CreateStudent(t *testing.T, trk *tracker.Tracker, first, last, email, class string) student.Student {
	std, err := trk.AddStudent(context.Background(), student.NewStudent{
		FirstName:   first,
		LastName:    last,
		ParentEmail: email,
		Class:       class,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// SetStatuses sets both periods of the studentID record of each date.
func SetStatuses(t *testing.T, trk *tracker.Tracker, studentID string, morning, afternoon attendance.Status, dates ...attendance.Date) {
	ctx := context.Background()
	for _, date := range dates {
		for period, status := range map[attendance.Period]attendance.Status{attendance.Morning: morning, attendance.Afternoon: afternoon} {
			edit := attendance.StatusEdit{StudentID: studentID, Date: date, Period: period, Status: status}
			if _, _, err := trk.SetPeriodStatus(ctx, edit); err != nil {
				t.Fatalf("SetStatuses() failed: %v", err)
			}
		}
	}
}

// Dates returns n consecutive dates starting at 2024-01-01.
func Dates(n int) []attendance.Date {
	start := attendance.Date("2024-01-01").Time()
	dates := make([]attendance.Date, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, attendance.DateOf(start.AddDate(0, 0, i)))
	}
	return dates
}
