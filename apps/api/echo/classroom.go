package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nm2tech/classmate/core/classroom"
	"github.com/nm2tech/classmate/core/user"
)

type classroomApi struct {
	svc      *classroom.Service
	validate *validator.Validate
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classroomApi{
		svc:      deps.ClassroomSvc,
		validate: deps.Validate,
	}

	anyUser := roleMiddleware(user.AllRoles...)
	staff := roleMiddleware(user.RoleAdmin, user.RoleTeacher)

	ng := g.Group("/newsletters", jwt)
	ng.GET("", api.queryNewsletters, anyUser)
	ng.GET("/latest", api.latestNewsletter, anyUser)
	ng.GET("/:id", api.retrieveNewsletter, anyUser)
	ng.POST("", api.createNewsletter, staff)
	ng.PUT("/:id", api.updateNewsletter, staff)
	ng.DELETE("/:id", api.destroyNewsletter, staff)
	ng.POST("/:id/send", api.sendNewsletter, staff)
	ng.POST("/send-latest", api.sendLatestNewsletter, staff)

	eg := g.Group("/events", jwt)
	eg.GET("", api.queryEvents, anyUser)
	eg.GET("/:id", api.retrieveEvent, anyUser)
	eg.POST("", api.createEvent, staff)
	eg.PUT("/:id", api.updateEvent, staff)
	eg.DELETE("/:id", api.destroyEvent, staff)
	eg.GET("/:id/rsvps", api.queryRSVPs, staff)
	eg.POST("/:id/rsvps", api.createRSVP, roleMiddleware(user.RoleParent))

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.queryAssignments, anyUser)
	ag.GET("/:id", api.retrieveAssignment, anyUser)
	ag.POST("", api.createAssignment, staff)
	ag.PUT("/:id", api.updateAssignment, staff)
	ag.DELETE("/:id", api.destroyAssignment, staff)

	pg := g.Group("/progress", jwt)
	pg.POST("", api.submitProgress, staff)
	pg.GET("/students/:id", api.queryProgressByStudent, anyUser)

	g.GET("/reports/summary", api.reportSummary, jwt, staff)
}

func actor(ctx echo.Context) (user.Principal, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Principal{}, err
	}
	return claims.Principal(), nil
}

// Newsletters

func (api *classroomApi) createNewsletter(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	var data classroom.NewNewsletter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNewsletter")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	n, err := api.svc.CreateNewsletter(ctx.Request().Context(), prin, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *classroomApi) queryNewsletters(ctx echo.Context) error {
	ns, err := api.svc.Newsletters(ctx.Request().Context(), intQueryParam(ctx, "limit", 0))
	if err != nil {
		return errors.Wrap(err, "querying newsletters")
	}
	return ctx.JSON(http.StatusOK, ns)
}

func (api *classroomApi) latestNewsletter(ctx echo.Context) error {
	n, err := api.svc.LatestNewsletter(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *classroomApi) retrieveNewsletter(ctx echo.Context) error {
	n, err := api.svc.GetNewsletter(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *classroomApi) updateNewsletter(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	var data classroom.NewNewsletter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNewsletter")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	n, err := api.svc.UpdateNewsletter(ctx.Request().Context(), prin, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *classroomApi) destroyNewsletter(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteNewsletter(ctx.Request().Context(), prin, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classroomApi) sendNewsletter(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	sent, err := api.svc.SendNewsletter(ctx.Request().Context(), prin, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SendResponse{Recipients: sent})
}

func (api *classroomApi) sendLatestNewsletter(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	sent, err := api.svc.SendLatest(ctx.Request().Context(), prin)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SendResponse{Recipients: sent})
}

// Events

func (api *classroomApi) createEvent(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	var data classroom.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	e, err := api.svc.CreateEvent(ctx.Request().Context(), prin, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *classroomApi) queryEvents(ctx echo.Context) error {
	es, err := api.svc.Events(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, es)
}

func (api *classroomApi) retrieveEvent(ctx echo.Context) error {
	e, err := api.svc.GetEvent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *classroomApi) updateEvent(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	var data classroom.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	e, err := api.svc.UpdateEvent(ctx.Request().Context(), prin, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *classroomApi) destroyEvent(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteEvent(ctx.Request().Context(), prin, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classroomApi) createRSVP(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	var data classroom.NewRSVP
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRSVP")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	r, err := api.svc.RSVP(ctx.Request().Context(), prin, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *classroomApi) queryRSVPs(ctx echo.Context) error {
	rs, err := api.svc.EventRSVPs(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying RSVPs")
	}
	return ctx.JSON(http.StatusOK, rs)
}

// Assignments

func (api *classroomApi) createAssignment(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	var data classroom.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	a, err := api.svc.CreateAssignment(ctx.Request().Context(), prin, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *classroomApi) queryAssignments(ctx echo.Context) error {
	as, err := api.svc.Assignments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *classroomApi) retrieveAssignment(ctx echo.Context) error {
	a, err := api.svc.GetAssignment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *classroomApi) updateAssignment(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	var data classroom.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	a, err := api.svc.UpdateAssignment(ctx.Request().Context(), prin, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *classroomApi) destroyAssignment(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAssignment(ctx.Request().Context(), prin, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Progress

func (api *classroomApi) submitProgress(ctx echo.Context) error {
	prin, err := actor(ctx)
	if err != nil {
		return err
	}
	var data classroom.NewProgress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgress")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	p, err := api.svc.SubmitProgress(ctx.Request().Context(), prin, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *classroomApi) queryProgressByStudent(ctx echo.Context) error {
	ps, err := api.svc.ProgressByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	return ctx.JSON(http.StatusOK, ps)
}

// Reports

func (api *classroomApi) reportSummary(ctx echo.Context) error {
	summary, err := api.svc.Reports(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building report summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

type SendResponse struct {
	Recipients int `json:"recipients"`
}
