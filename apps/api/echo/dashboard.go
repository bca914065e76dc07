package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/absences/core/notification"
	"github.com/trezcool/absences/core/tracker"
)

type dashboardApi struct {
	trk *tracker.Tracker
}

func registerDashboardAPI(g *echo.Group, trk *tracker.Tracker) {
	api := dashboardApi{trk: trk}
	g.GET("/dashboard", api.overview)
}

func (api *dashboardApi) overview(ctx echo.Context) error {
	q, err := bindOverviewQuery(ctx)
	if err != nil {
		return err
	}
	ov := api.trk.Overview(q)
	if ov.Students == nil {
		ov.Students = []tracker.StudentOverview{}
	}
	return ctx.JSON(http.StatusOK, ov)
}

type templateApi struct {
	trk *tracker.Tracker
}

func registerTemplateAPI(g *echo.Group, trk *tracker.Tracker) {
	api := templateApi{trk: trk}

	tg := g.Group("/templates")
	tg.GET("", api.query)
	tg.PUT("/:kind", api.update)
}

func (api *templateApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.trk.Templates())
}

func (api *templateApi) update(ctx echo.Context) error {
	kind, err := notification.ParseKind(ctx.Param("kind"))
	if err != nil {
		return errHttpNotFound
	}

	var data notification.Template
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Template")
	}
	data.Kind = kind

	tpl, err := api.trk.SaveTemplate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving template")
	}
	return ctx.JSON(http.StatusOK, tpl)
}
