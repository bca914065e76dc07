package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/core/tracker"
)

const objectKey = "object"

var errStdNotFoundInCtx = errors.New("student object not found in echo.Context")

// studentMiddleware loads the `:id` student into the context, or answers 404.
func studentMiddleware(trk *tracker.Tracker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			std, err := trk.Student(ctx.Param("id"))
			if err != nil {
				if errors.Is(err, student.ErrNotFound) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(objectKey, std)
			return next(ctx)
		}
	}
}

func getContextStudent(ctx echo.Context) (student.Student, error) {
	std, ok := ctx.Get(objectKey).(student.Student)
	if !ok {
		return student.Student{}, errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	return std, nil
}
