package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
)

type catalogApi struct {
	svc      catalog.ServiceInterface
	validate *validator.Validate
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc catalog.ServiceInterface, validate *validator.Validate) {
	api := catalogApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/courses")

	// un-authed endpoints: the catalog is public
	cg.GET("", api.query)
	cg.GET("/:slug", api.retrieve)
	cg.GET("/:slug/modules", api.modules)

	// admin endpoints
	ag := g.Group("/admin/courses", jwt, adminMiddleware())
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *catalogApi) query(ctx echo.Context) error {
	entries, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if entries == nil {
		entries = []catalog.CourseEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *catalogApi) retrieve(ctx echo.Context) error {
	course, err := api.svc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *catalogApi) modules(ctx echo.Context) error {
	modules, err := api.svc.ModulesBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return err
	}
	if modules == nil {
		modules = []catalog.Module{}
	}
	return ctx.JSON(http.StatusOK, modules)
}

func (api *catalogApi) create(ctx echo.Context) error {
	var data catalog.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	sess := getContextSession(ctx)
	reqCtx := core.ContextWithToken(ctx.Request().Context(), sess.Token())
	entry, err := api.svc.Create(reqCtx, sess, data, api.validate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *catalogApi) update(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data catalog.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}

	reqCtx := core.ContextWithToken(ctx.Request().Context(), getContextSession(ctx).Token())
	entry, err := api.svc.Update(reqCtx, id, data, api.validate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *catalogApi) destroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	reqCtx := core.ContextWithToken(ctx.Request().Context(), getContextSession(ctx).Token())
	if err := api.svc.Delete(reqCtx, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
