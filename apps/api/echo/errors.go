package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/attendance"
	"github.com/trezcool/absences/core/notification"
	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/services/importer"
)

var (
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

	notFoundErrors = []error{
		student.ErrNotFound,
		attendance.ErrRecordNotFound,
		notification.ErrTemplateNotFound,
	}
	badRequestErrors = []error{
		student.ErrDuplicateContact,
		attendance.ErrInvalidStatus,
		attendance.ErrInvalidPeriod,
		attendance.ErrInvalidDate,
		notification.ErrInvalidKind,
		importer.ErrUnsupportedFormat,
		importer.ErrEmptySheet,
		importer.ErrMissingColumns,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, v *core.Validator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = v.FieldErrors(origErr)
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			switch {
			case isAny(err, notFoundErrors):
				code = http.StatusNotFound
				message = origErr.Error()
			case isAny(err, badRequestErrors):
				code = http.StatusBadRequest
				message = err.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				extras := map[string]interface{}{
					"method": ctx.Request().Method,
					"path":   ctx.Path(),
				}
				if id := ctx.Param("id"); id != "" {
					extras["student_id"] = id
				}
				logger.Error(msg, errors.Wrap(err, msg), extras)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
