package dummydb

import (
	"sync"

	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/notification"
	"github.com/trezcool/absences/core/student"
)

type (
	// DB is an in-memory database, for tests and the `memory` engine.
	DB struct {
		student      *studentTable
		record       *recordTable
		notification *notificationTable
		template     *templateTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]student.Student
	}

	recordKey struct {
		studentID string
		date      attendance.Date
	}

	recordTable struct {
		sync.RWMutex
		table map[recordKey]attendance.Record
	}

	notificationTable struct {
		sync.RWMutex
		table []notification.Entry
	}

	templateTable struct {
		sync.RWMutex
		table map[notification.Kind]notification.Template
	}
)

func Open() (*DB, error) {
	db := &DB{
		student:      &studentTable{table: make(map[string]student.Student)},
		record:       &recordTable{table: make(map[recordKey]attendance.Record)},
		notification: &notificationTable{},
		template:     &templateTable{table: make(map[notification.Kind]notification.Template)},
	}
	return db, nil
}
