// Package tracker wires the attendance store, the roster and the notification trigger
// into the session object the presentation layers work with.
package tracker

import (
	"context"
	"iter"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/notification"
	"github.com/trezcool/absences/core/student"
)

type (
	// Repositories are the persistence collaborators of a Tracker.
	Repositories struct {
		Students      student.Repository
		Records       attendance.Repository
		Notifications notification.Repository
		Templates     notification.TemplateRepository
	}

	// Draft is a composed message, handed over to the email service.
	Draft struct {
		Message   *core.EmailMessage `json:"-"`
		To        string             `json:"to"`
		Subject   string             `json:"subject"`
		Body      string             `json:"body"`
		MailtoURL string             `json:"mailto_url"`
		Entry     notification.Entry `json:"entry"`
	}

	// Tracker owns the attendance state of one application session.
	// Reads go straight to the components; mutations are serialized and forwarded to the repositories.
	Tracker struct {
		mu sync.Mutex

		conf      *core.Config
		repos     Repositories
		mailer    core.EmailService
		logger    core.Logger
		validator *core.Validator

		store     *attendance.Store
		roster    *student.Roster
		log       *notification.Log
		trigger   *notification.Trigger
		templates *notification.Templates

		nowFunc func() time.Time
	}
)

func New(
	conf *core.Config,
	repos Repositories,
	mailer core.EmailService,
	logger core.Logger,
	validator *core.Validator,
) *Tracker {
	threshold := conf.AlertThreshold
	if threshold < 0 {
		threshold = core.DefaultAlertThreshold
	}
	store := attendance.NewStore()
	nlog := notification.NewLog()
	return &Tracker{
		conf:      conf,
		repos:     repos,
		mailer:    mailer,
		logger:    logger,
		validator: validator,
		store:     store,
		roster:    student.NewRoster(store, nlog),
		log:       nlog,
		trigger:   notification.NewTrigger(threshold, nlog),
		templates: notification.NewTemplates(),
		nowFunc:   time.Now,
	}
}

// Load hydrates every component from the repositories.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	students, err := t.repos.Students.QueryAllStudents(ctx)
	if err != nil {
		return errors.Wrap(err, "loading students")
	}
	records, err := t.repos.Records.QueryAllRecords(ctx)
	if err != nil {
		return errors.Wrap(err, "loading attendance records")
	}
	entries, err := t.repos.Notifications.QueryAllEntries(ctx)
	if err != nil {
		return errors.Wrap(err, "loading notification log")
	}
	tpls, err := t.repos.Templates.QueryAllTemplates(ctx)
	if err != nil {
		return errors.Wrap(err, "loading email templates")
	}

	t.roster.Load(students...)
	t.store.Load(records...)
	t.log.Load(entries...)
	t.templates.Load(tpls...)

	t.logger.Info("tracker loaded", map[string]interface{}{
		"students": len(students),
		"records":  t.store.Len(),
		"entries":  len(entries),
	})
	return nil
}

func (t *Tracker) AlertThreshold() int { return t.trigger.AlertThreshold() }

// Students

func (t *Tracker) Students() iter.Seq[student.Student] {
	return t.roster.List()
}

func (t *Tracker) FilterStudents(filter student.QueryFilter) []student.Student {
	return t.roster.Filter(filter)
}

func (t *Tracker) Student(id string) (student.Student, error) {
	return t.roster.Get(id)
}

func duplicateContactError() error {
	return core.NewValidationError(student.ErrDuplicateContact, core.FieldError{
		Field: "parent_email",
		Error: student.ErrDuplicateContact.Error(),
	})
}

func (t *Tracker) AddStudent(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	if err := ns.Validate(t.validator); err != nil {
		return student.Student{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	std, err := t.roster.Add(ns.Student())
	if err != nil {
		if errors.Is(err, student.ErrDuplicateContact) {
			return student.Student{}, duplicateContactError()
		}
		return student.Student{}, err
	}
	if err = t.repos.Students.CreateStudents(ctx, std); err != nil {
		_, _ = t.roster.Remove(std.ID)
		return student.Student{}, errors.Wrap(err, "saving student")
	}
	return std, nil
}

// AddStudents adds every student whose contact is not on the roster yet.
// Nothing is added when one of them is invalid.
func (t *Tracker) AddStudents(ctx context.Context, nss []student.NewStudent) (student.BulkResult, error) {
	students := make([]student.Student, 0, len(nss))
	for i := range nss {
		if err := nss[i].Validate(t.validator); err != nil {
			return student.BulkResult{}, errors.Wrapf(err, "student #%d", i+1)
		}
		students = append(students, nss[i].Student())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	res := t.roster.AddBulk(students)
	if len(res.Added) > 0 {
		if err := t.repos.Students.CreateStudents(ctx, res.Added...); err != nil {
			for _, std := range res.Added {
				_, _ = t.roster.Remove(std.ID)
			}
			return student.BulkResult{}, errors.Wrap(err, "saving students")
		}
	}
	t.logger.Info("students imported", map[string]interface{}{"added": len(res.Added), "skipped": len(res.Skipped)})
	return res, nil
}

func (t *Tracker) UpdateStudent(ctx context.Context, id string, us student.UpdateStudent) (student.Student, error) {
	if err := us.Validate(t.validator); err != nil {
		return student.Student{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	orig, err := t.roster.Get(id)
	if err != nil {
		return student.Student{}, err
	}
	std, err := t.roster.Update(id, us)
	if err != nil {
		if errors.Is(err, student.ErrDuplicateContact) {
			return student.Student{}, duplicateContactError()
		}
		return student.Student{}, err
	}
	if err = t.repos.Students.UpdateStudent(ctx, std); err != nil {
		_, _ = t.roster.Update(id, student.UpdateStudent{
			FirstName:   &orig.FirstName,
			LastName:    &orig.LastName,
			ParentEmail: &orig.ParentEmail,
			Class:       &orig.Class,
		})
		return student.Student{}, errors.Wrap(err, "saving student")
	}
	return std, nil
}

// RemoveStudent removes the student with its attendance records and notification log.
// Each part is dropped from memory once its repository deletion succeeded.
func (t *Tracker) RemoveStudent(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.roster.Get(id); err != nil {
		return err
	}
	if err := t.repos.Records.DeleteRecordsByStudent(ctx, id); err != nil {
		return errors.Wrap(err, "deleting attendance records")
	}
	t.store.DeleteAllForStudent(id)
	if err := t.repos.Notifications.DeleteEntriesByStudent(ctx, id); err != nil {
		return errors.Wrap(err, "deleting notification log")
	}
	t.log.DeleteAllForStudent(id)
	if err := t.repos.Students.DeleteStudent(ctx, id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	_, err := t.roster.Remove(id)
	return err
}

// Attendance

// SetPeriodStatus applies one period edit and persists the outcome.
func (t *Tracker) SetPeriodStatus(ctx context.Context, edit attendance.StatusEdit) (attendance.Outcome, attendance.Record, error) {
	if _, err := attendance.ParseDate(string(edit.Date)); err != nil {
		return attendance.Unchanged, attendance.Record{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.roster.Get(edit.StudentID); err != nil {
		return attendance.Unchanged, attendance.Record{}, err
	}
	prev, existed := t.store.Get(edit.StudentID, edit.Date)
	outcome, rec, err := t.store.SetPeriodStatus(edit.StudentID, edit.Date, edit.Period, edit.Status)
	if err != nil {
		return attendance.Unchanged, attendance.Record{}, err
	}

	switch outcome {
	case attendance.Created, attendance.Updated:
		err = t.repos.Records.SaveRecord(ctx, rec)
	case attendance.Deleted:
		err = t.repos.Records.DeleteRecord(ctx, edit.StudentID, edit.Date)
	}
	if err != nil {
		t.store.Restore(edit.StudentID, edit.Date, prev, existed)
		return attendance.Unchanged, attendance.Record{}, errors.Wrap(err, "saving attendance record")
	}
	return outcome, rec, nil
}

func (t *Tracker) SetNotes(ctx context.Context, studentID string, date attendance.Date, notes string) (attendance.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.store.Get(studentID, date)
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	rec, err := t.store.SetNotes(studentID, date, strings.TrimSpace(notes))
	if err != nil {
		return attendance.Record{}, err
	}
	if err = t.repos.Records.SaveRecord(ctx, rec); err != nil {
		_, _ = t.store.SetNotes(studentID, date, prev.Notes)
		return attendance.Record{}, errors.Wrap(err, "saving attendance record")
	}
	return rec, nil
}

func (t *Tracker) Record(studentID string, date attendance.Date) (attendance.Record, bool) {
	return t.store.Get(studentID, date)
}

// Records returns the records of the student, oldest first.
func (t *Tracker) Records(studentID string) ([]attendance.Record, error) {
	if _, err := t.roster.Get(studentID); err != nil {
		return nil, err
	}
	recs := slices.Collect(t.store.RecordsForStudent(studentID))
	slices.SortFunc(recs, func(a, b attendance.Record) int { return strings.Compare(string(a.Date), string(b.Date)) })
	return recs, nil
}

// RecordsForDate returns the records of date, keyed by student id.
func (t *Tracker) RecordsForDate(date attendance.Date) map[string]attendance.Record {
	recs := make(map[string]attendance.Record)
	for rec := range t.store.RecordsForDate(date) {
		recs[rec.StudentID] = rec
	}
	return recs
}

func (t *Tracker) Summary(studentID string) (attendance.Summary, error) {
	if _, err := t.roster.Get(studentID); err != nil {
		return attendance.Summary{}, err
	}
	return t.store.Summarize(studentID), nil
}

func (t *Tracker) IsInAlert(studentID string) (bool, error) {
	sum, err := t.Summary(studentID)
	if err != nil {
		return false, err
	}
	return t.trigger.IsInAlert(sum), nil
}

// Notifications

func (t *Tracker) Notifications(studentID string) ([]notification.Entry, error) {
	if _, err := t.roster.Get(studentID); err != nil {
		return nil, err
	}
	return t.trigger.EntriesForStudent(studentID), nil
}

func (t *Tracker) Templates() []notification.Template {
	return t.templates.All()
}

func (t *Tracker) Template(kind notification.Kind) (notification.Template, error) {
	return t.templates.Get(kind)
}

func (t *Tracker) SaveTemplate(ctx context.Context, tpl notification.Template) (notification.Template, error) {
	if !tpl.Kind.Valid() {
		return notification.Template{}, core.NewValidationError(notification.ErrInvalidKind, core.FieldError{
			Field: "kind",
			Error: notification.ErrInvalidKind.Error(),
		})
	}
	tpl.Name = core.CleanString(tpl.Name)
	tpl.Subject = core.CleanString(tpl.Subject)
	if err := t.validator.Struct(tpl); err != nil {
		return notification.Template{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, _ := t.templates.Get(tpl.Kind)
	if err := t.templates.Set(tpl); err != nil {
		return notification.Template{}, err
	}
	if err := t.repos.Templates.SaveTemplate(ctx, tpl); err != nil {
		_ = t.templates.Set(prev)
		return notification.Template{}, errors.Wrap(err, "saving email template")
	}
	return tpl, nil
}

// Notify composes the kind message for the student's parents and hands it to the email service.
// The dispatch is logged only once the email service accepted the message.
// A log entry the repository fails to save is kept for the session and reported to the logger.
// Alerts get the current unjustified tally as absenceCount unless vars sets it.
func (t *Tracker) Notify(ctx context.Context, studentID string, kind notification.Kind, vars notification.Vars) (Draft, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	std, err := t.roster.Get(studentID)
	if err != nil {
		return Draft{}, err
	}
	tpl, err := t.templates.Get(kind)
	if err != nil {
		return Draft{}, err
	}

	defaults := notification.DefaultVars(std.FullName(), t.nowFunc())
	if kind == notification.KindAlert {
		defaults[notification.VarAbsenceCount] = strconv.Itoa(t.store.Summarize(studentID).TotalUnjustified)
	}
	subject, body := tpl.Render(defaults.With(vars))
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: std.FullName(), Address: std.ParentEmail}},
		Subject: subject,
		Body:    body,
	}
	if err = t.mailer.SendMessages(ctx, msg); err != nil {
		return Draft{}, errors.Wrap(err, "sending message")
	}
	entry := t.trigger.LogDispatch(studentID, kind)
	draft := Draft{
		Message:   msg,
		To:        std.ParentEmail,
		Subject:   subject,
		Body:      body,
		MailtoURL: msg.MailtoURL(),
		Entry:     entry,
	}
	if err = t.repos.Notifications.CreateEntry(ctx, entry); err != nil {
		t.logger.Error("saving notification log entry", errors.Wrap(err, "message already sent"), map[string]interface{}{
			"student_id": studentID,
			"kind":       string(kind),
		})
	}
	return draft, nil
}

// LastNotification returns the most recent kind message sent about the student.
func (t *Tracker) LastNotification(studentID string, kind notification.Kind) (notification.Entry, bool) {
	return t.log.LastEntry(studentID, kind)
}

// PendingAlerts returns the summaries of the students in alert, most unjustified first.
func (t *Tracker) PendingAlerts() []StudentOverview {
	ov := t.Overview(OverviewQuery{AlertsOnly: true})
	return ov.Students
}
