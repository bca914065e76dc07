package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/notification"
	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/core/tracker"
	"github.com/trezcool/absences/services/importer"
)

const (
	importFileField = "file"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type studentApi struct {
	trk       *tracker.Tracker
	validator *core.Validator
	metrics   *metrics
}

func registerStudentAPI(g *echo.Group, trk *tracker.Tracker, validator *core.Validator, m *metrics) {
	api := studentApi{
		trk:       trk,
		validator: validator,
		metrics:   m,
	}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.POST("/import", api.importRoster)
	sg.GET("/import/template", api.importTemplate)

	// detail endpoints
	dg := sg.Group("/:id", studentMiddleware(trk))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/attendance", api.attendance)
	dg.GET("/notifications", api.notifications)
	dg.POST("/notifications", api.notify)
}

type (
	StudentDetail struct {
		student.Student
		Summary attendance.Summary `json:"summary"`
		InAlert bool               `json:"in_alert"`
	}

	StudentAttendance struct {
		Summary attendance.Summary  `json:"summary"`
		InAlert bool                `json:"in_alert"`
		Records []attendance.Record `json:"records"`
	}

	NotifyRequest struct {
		Kind notification.Kind `json:"kind" validate:"required"`
		Vars notification.Vars `json:"vars"`
	}
)

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	students := api.trk.FilterStudents(bindFilter(ctx))
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	std, err := api.trk.AddStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) importRoster(ctx echo.Context) error {
	fh, err := ctx.FormFile(importFileField)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: importFileField, Error: "a spreadsheet file is required"})
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = file.Close() }()

	rep, err := importer.Import(ctx.Request().Context(), api.trk, file, fh.Filename)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	api.metrics.imported.WithLabelValues("added").Add(float64(len(rep.Added)))
	api.metrics.imported.WithLabelValues("skipped").Add(float64(len(rep.Skipped)))
	api.metrics.imported.WithLabelValues("error").Add(float64(len(rep.Errors)))

	if rep.Added == nil {
		rep.Added = []student.Student{}
	}
	if rep.Skipped == nil {
		rep.Skipped = []student.Student{}
	}
	if rep.Errors == nil {
		rep.Errors = []importer.RowError{}
	}
	if rep.Warnings == nil {
		rep.Warnings = []importer.Warning{}
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *studentApi) importTemplate(ctx echo.Context) error {
	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf); err != nil {
		return errors.Wrap(err, "writing import template")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+importer.TemplateFilename+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	sum, err := api.trk.Summary(std.ID)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	inAlert, err := api.trk.IsInAlert(std.ID)
	if err != nil {
		return errors.Wrap(err, "checking alert")
	}
	return ctx.JSON(http.StatusOK, StudentDetail{Student: std, Summary: sum, InAlert: inAlert})
}

func (api *studentApi) update(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	std, err = api.trk.UpdateStudent(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err = api.trk.RemoveStudent(ctx.Request().Context(), std.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) attendance(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	recs, err := api.trk.Records(std.ID)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	sum, _ := api.trk.Summary(std.ID)
	inAlert, _ := api.trk.IsInAlert(std.ID)
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, StudentAttendance{Summary: sum, InAlert: inAlert, Records: recs})
}

func (api *studentApi) notifications(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	entries, err := api.trk.Notifications(std.ID)
	if err != nil {
		return errors.Wrap(err, "querying notification log")
	}
	if entries == nil {
		entries = []notification.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *studentApi) notify(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data NotifyRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotifyRequest")
	}
	if err = api.validator.Struct(data); err != nil {
		return err
	}

	draft, err := api.trk.Notify(ctx.Request().Context(), std.ID, data.Kind, data.Vars)
	if err != nil {
		return errors.Wrap(err, "notifying parents")
	}
	api.metrics.notifications.WithLabelValues(string(data.Kind)).Inc()
	return ctx.JSON(http.StatusCreated, draft)
}
