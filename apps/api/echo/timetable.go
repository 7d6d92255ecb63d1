package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
)

type timetableApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerTimetableAPI(g *echo.Group, svc *schedule.Service, validate *validator.Validate) {
	api := timetableApi{svc: svc, validate: validate}

	tg := g.Group("/timetables")
	tg.POST("", api.create)
	tg.GET("", api.query)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.PATCH("/deactivate", api.deactivate)
	dg.PATCH("/remove-substitute", api.removeSubstitute)
}

// Handlers

func (api *timetableApi) create(ctx echo.Context) error {
	var data schedule.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating timetable entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *timetableApi) query(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Entry{})
	}

	entries, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying timetable entries")
	}
	if entries == nil {
		entries = []schedule.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *timetableApi) retrieve(ctx echo.Context) error {
	entry, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting timetable entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *timetableApi) update(ctx echo.Context) error {
	var data schedule.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating timetable entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *timetableApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting timetable entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *timetableApi) deactivate(ctx echo.Context) error {
	entry, err := api.svc.Deactivate(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deactivating timetable entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *timetableApi) removeSubstitute(ctx echo.Context) error {
	entry, err := api.svc.RemoveSubstitute(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "removing substitute")
	}
	return ctx.JSON(http.StatusOK, entry)
}
