package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/notification"
)

type notificationApi struct {
	svc       *notification.Service
	reminders *notification.ReminderScheduler
	validate  *validator.Validate
}

func registerNotificationAPI(
	g *echo.Group,
	svc *notification.Service,
	reminders *notification.ReminderScheduler,
	validate *validator.Validate,
) {
	api := notificationApi{svc: svc, reminders: reminders, validate: validate}

	ng := g.Group("/notifications")
	ng.GET("", api.query)
	ng.POST("/announcements", api.createAnnouncement)
	ng.POST("/exams", api.createExamNotice)
	ng.POST("/pending/process", api.processPending)

	rg := ng.Group("/recipient/:id")
	rg.GET("", api.forRecipient)
	rg.GET("/unread", api.unread)
	rg.PATCH("/read-all", api.markAllRead)

	dg := ng.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/logs", api.logs)
	dg.PATCH("/read", api.markRead)

	g.POST("/daily-reminders/trigger", api.triggerDailyReminders)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	notifs, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) retrieve(ctx echo.Context) error {
	notif, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting notification")
	}
	return ctx.JSON(http.StatusOK, notif)
}

func (api *notificationApi) forRecipient(ctx echo.Context) error {
	role := notification.RecipientType(ctx.QueryParam("role"))
	if role == "" {
		role = notification.RecipientStudent
	}

	notifs, err := api.svc.ForRecipient(ctx.Param("id"), role)
	if err != nil {
		return errors.Wrap(err, "querying recipient notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) unread(ctx echo.Context) error {
	notifs, err := api.svc.Unread(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying unread notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	notif, err := api.svc.MarkRead(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, notif)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	count, err := api.svc.MarkAllRead(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"marked_read": count})
}

func (api *notificationApi) logs(ctx echo.Context) error {
	logs, err := api.svc.LogsFor(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying notification logs")
	}
	if logs == nil {
		logs = []notification.Log{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *notificationApi) createAnnouncement(ctx echo.Context) error {
	var data notification.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	notif, err := api.svc.CreateAnnouncement(data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, notif)
}

func (api *notificationApi) createExamNotice(ctx echo.Context) error {
	var data notification.NewExamNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExamNotice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	notif, err := api.svc.CreateExamNotification(data)
	if err != nil {
		return errors.Wrap(err, "creating exam notification")
	}
	return ctx.JSON(http.StatusCreated, notif)
}

func (api *notificationApi) triggerDailyReminders(ctx echo.Context) error {
	count, err := api.reminders.RunDailyReminders()
	if err != nil {
		if errors.Cause(err) == notification.ErrRunInFlight {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return errors.Wrap(err, "triggering daily reminders")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"reminded": count})
}

func (api *notificationApi) processPending(ctx echo.Context) error {
	count, err := api.reminders.FlushPending()
	if err != nil {
		if errors.Cause(err) == notification.ErrRunInFlight {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return errors.Wrap(err, "processing pending notifications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"processed": count})
}
