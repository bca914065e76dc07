package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/core/tracker"
)

const (
	orderingParam = "sort"
	searchParam   = "search"
	classParam    = "class"
	alertsParam   = "alerts"
	minPrefix     = "min_"
	maxPrefix     = "max_"
)

type Ordering struct {
	Orderings []core.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrderings(val)
	}
}

func bindFilter(ctx echo.Context) student.QueryFilter {
	filter := student.QueryFilter{
		Search: ctx.QueryParam(searchParam),
		Class:  ctx.QueryParam(classParam),
	}
	filter.Clean()
	return filter
}

// bindOverviewQuery reads `search`, `class`, `sort`, `alerts` and the `min_<column>` / `max_<column>` bounds.
func bindOverviewQuery(ctx echo.Context) (tracker.OverviewQuery, error) {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	q := tracker.OverviewQuery{
		Filter:    bindFilter(ctx),
		Orderings: ordering.Orderings,
	}

	var flds []core.FieldError
	if val := ctx.QueryParam(alertsParam); val != "" {
		alerts, err := strconv.ParseBool(val)
		if err != nil {
			flds = append(flds, core.FieldError{Field: alertsParam, Error: "must be a boolean"})
		}
		q.AlertsOnly = alerts
	}

	for key, vals := range ctx.QueryParams() {
		var col string
		var isMin bool
		switch {
		case strings.HasPrefix(key, minPrefix):
			col, isMin = strings.TrimPrefix(key, minPrefix), true
		case strings.HasPrefix(key, maxPrefix):
			col = strings.TrimPrefix(key, maxPrefix)
		default:
			continue
		}
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		n, err := strconv.Atoi(vals[0])
		if err != nil || n < 0 {
			flds = append(flds, core.FieldError{Field: key, Error: "must be a positive integer"})
			continue
		}

		if q.Ranges == nil {
			q.Ranges = make(map[tracker.Column]tracker.Range)
		}
		rng := q.Ranges[tracker.Column(col)]
		if isMin {
			rng.Min = &n
		} else {
			rng.Max = &n
		}
		q.Ranges[tracker.Column(col)] = rng
	}

	if len(flds) > 0 {
		return q, core.NewValidationError(nil, flds...)
	}
	return q, q.Validate()
}
