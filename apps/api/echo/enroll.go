package echoapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/enroll"
)

type (
	enrollApi struct {
		svc enroll.ServiceInterface
	}

	IdentityResponse struct {
		Identity string `json:"identity"`
	}

	EnrollResponse struct {
		CourseID int            `json:"course_id"`
		Outcome  enroll.Outcome `json:"outcome"`
		Status   enroll.Status  `json:"status"`
	}

	TotalResponse struct {
		Total int `json:"total"`
	}
)

func registerEnrollAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc enroll.ServiceInterface) {
	api := enrollApi{svc: svc}

	// authed endpoints
	ag := g.Group("", jwt)
	ag.GET("/me", api.me)
	ag.GET("/my-courses", api.myCourses)
	ag.GET("/courses/:slug/enrollment", api.resolve)
	ag.POST("/courses/:slug/enroll", api.enroll)
	ag.PUT("/courses/:slug/modules/:id/current", api.setCurrentModule)
	ag.POST("/courses/:slug/modules/:id/complete", api.completeModule)

	// admin dashboard
	dg := g.Group("/admin/dashboard", jwt, adminMiddleware())
	dg.GET("/enrollments", api.stats)
	dg.GET("/enrollments/total", api.total)
}

// Handlers

func (api *enrollApi) me(ctx echo.Context) error {
	identity, err := api.svc.ResolveIdentity(ctx.Request().Context(), getContextSession(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, IdentityResponse{Identity: identity})
}

func (api *enrollApi) myCourses(ctx echo.Context) error {
	mine, err := api.svc.MyCourses(ctx.Request().Context(), getContextSession(ctx))
	if err != nil {
		return err
	}
	if mine == nil {
		mine = []enroll.MyCourse{}
	}
	return ctx.JSON(http.StatusOK, mine)
}

func (api *enrollApi) resolve(ctx echo.Context) error {
	res, err := api.svc.ResolveEnrollment(ctx.Request().Context(), getContextSession(ctx), ctx.Param("slug"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// enroll resolves the slug first and only calls the mutator with a resolved
// course identifier. Finding an existing record during resolution reports
// already_enrolled without a mutating call.
func (api *enrollApi) enroll(ctx echo.Context) error {
	sess := getContextSession(ctx)
	reqCtx := ctx.Request().Context()

	res, err := api.svc.ResolveEnrollment(reqCtx, sess, ctx.Param("slug"))
	if err != nil {
		return err
	}
	if res.Enrolled {
		return ctx.JSON(http.StatusOK, EnrollResponse{
			CourseID: res.CourseID,
			Outcome:  enroll.OutcomeAlreadyEnrolled,
			Status:   enroll.StatusEnrolled,
		})
	}

	outcome, err := api.svc.Enroll(reqCtx, sess, res.CourseID)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}

	code := http.StatusCreated
	if outcome == enroll.OutcomeAlreadyEnrolled {
		code = http.StatusOK
	}
	return ctx.JSON(code, EnrollResponse{
		CourseID: res.CourseID,
		Outcome:  outcome,
		Status:   enroll.StatusEnrolled,
	})
}

func (api *enrollApi) setCurrentModule(ctx echo.Context) error {
	return api.updateProgress(ctx, api.svc.SetCurrentModule)
}

func (api *enrollApi) completeModule(ctx echo.Context) error {
	return api.updateProgress(ctx, api.svc.CompleteModule)
}

func (api *enrollApi) updateProgress(
	ctx echo.Context,
	update func(ctx context.Context, sess core.Session, courseID, moduleID int) error,
) error {
	moduleID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	sess := getContextSession(ctx)
	reqCtx := ctx.Request().Context()

	res, err := api.svc.ResolveEnrollment(reqCtx, sess, ctx.Param("slug"))
	if err != nil {
		return err
	}
	if !res.Enrolled {
		return errHttpForbidden
	}

	if err := update(reqCtx, sess, res.CourseID, moduleID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *enrollApi) stats(ctx echo.Context) error {
	counts, err := api.svc.EnrollmentStats(ctx.Request().Context(), getContextSession(ctx))
	if err != nil {
		return err
	}
	if counts == nil {
		counts = []enroll.CourseCount{}
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *enrollApi) total(ctx echo.Context) error {
	total, err := api.svc.TotalEnrollments(ctx.Request().Context(), getContextSession(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TotalResponse{Total: total})
}
