package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/tracker"
)

type attendanceApi struct {
	trk       *tracker.Tracker
	validator *core.Validator
	metrics   *metrics
}

func registerAttendanceAPI(g *echo.Group, trk *tracker.Tracker, validator *core.Validator, m *metrics) {
	api := attendanceApi{
		trk:       trk,
		validator: validator,
		metrics:   m,
	}

	ag := g.Group("/attendance")
	ag.GET("", api.queryDate)
	ag.PUT("", api.edit)
}

type (
	// EditRequest sets the status of one period, the notes of the day, or both.
	EditRequest struct {
		StudentID string             `json:"student_id" validate:"required"`
		Date      attendance.Date    `json:"date" validate:"required"`
		Period    *attendance.Period `json:"period"`
		Status    *attendance.Status `json:"status"`
		Notes     *string            `json:"notes"`
	}

	EditResponse struct {
		Outcome attendance.Outcome `json:"outcome"`
		Record  *attendance.Record `json:"record"` // nil once the record is deleted
	}

	DayAttendance struct {
		Date    attendance.Date              `json:"date"`
		Records map[string]attendance.Record `json:"records"` // by student id
	}
)

func (er *EditRequest) Validate(v *core.Validator) error {
	er.StudentID = core.CleanString(er.StudentID)
	if err := v.Struct(er); err != nil {
		return err
	}

	var flds []core.FieldError
	switch {
	case er.Period == nil && er.Status == nil && er.Notes == nil:
		flds = append(flds, core.FieldError{Field: "status", Error: "a status or notes are required"})
	case er.Period == nil && er.Status != nil:
		flds = append(flds, core.FieldError{Field: "period", Error: "this field is required"})
	case er.Period != nil && er.Status == nil:
		flds = append(flds, core.FieldError{Field: "status", Error: "this field is required"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// Handlers

func (api *attendanceApi) queryDate(ctx echo.Context) error {
	date := attendance.Today()
	if val := ctx.QueryParam("date"); val != "" {
		var err error
		if date, err = attendance.ParseDate(val); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
		}
	}
	return ctx.JSON(http.StatusOK, DayAttendance{Date: date, Records: api.trk.RecordsForDate(date)})
}

func (api *attendanceApi) edit(ctx echo.Context) error {
	var data EditRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditRequest")
	}
	if err := data.Validate(api.validator); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	res := EditResponse{Outcome: attendance.Unchanged}
	if rec, ok := api.trk.Record(data.StudentID, data.Date); ok {
		res.Record = &rec
	}

	if data.Status != nil {
		outcome, rec, err := api.trk.SetPeriodStatus(reqCtx, attendance.StatusEdit{
			StudentID: data.StudentID,
			Date:      data.Date,
			Period:    *data.Period,
			Status:    *data.Status,
		})
		if err != nil {
			return errors.Wrap(err, "setting period status")
		}
		api.metrics.statusEdits.WithLabelValues(outcome.String()).Inc()
		res.Outcome = outcome
		if outcome == attendance.Deleted {
			res.Record = nil
		} else {
			res.Record = &rec
		}
	}

	if data.Notes != nil {
		rec, err := api.trk.SetNotes(reqCtx, data.StudentID, data.Date, *data.Notes)
		if err != nil {
			return errors.Wrap(err, "setting notes")
		}
		if res.Outcome == attendance.Unchanged {
			res.Outcome = attendance.Updated
		}
		res.Record = &rec
	}
	return ctx.JSON(http.StatusOK, res)
}
