package catalog

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

type (
	// Backend is the slice of the remote course service consumed by the
	// catalog. Calls are identity-implicit: the session credential travels
	// on ctx (core.ContextWithToken).
	Backend interface {
		GetCourseBySlug(ctx context.Context, slug string) (*Course, error)
		GetCourses(ctx context.Context) ([]CourseEntry, error)
		GetCourseModules(ctx context.Context, courseID int) ([]Module, error)
		AddCourse(ctx context.Context, course Course) (int, error)
		EditCourse(ctx context.Context, courseID int, course Course) (bool, error)
		RemoveCourse(ctx context.Context, courseID int) (bool, error)
	}

	ServiceInterface interface {
		Query(ctx context.Context) ([]CourseEntry, error)
		GetBySlug(ctx context.Context, slug string) (Course, error)
		Modules(ctx context.Context, courseID int) ([]Module, error)
		ModulesBySlug(ctx context.Context, slug string) ([]Module, error)
		Create(ctx context.Context, sess core.Session, nc NewCourse, validate *validator.Validate) (CourseEntry, error)
		Update(ctx context.Context, courseID int, uc UpdateCourse, validate *validator.Validate) (CourseEntry, error)
		Delete(ctx context.Context, courseID int) error
	}

	Service struct {
		backend Backend
		logger  core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(backend Backend, logger core.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

func (svc *Service) Query(ctx context.Context) ([]CourseEntry, error) {
	entries, err := svc.backend.GetCourses(ctx)
	if err != nil {
		return nil, core.NewRemoteError("get_courses", err)
	}
	return entries, nil
}

// GetBySlug fetches the course published under slug. The single-course fetch
// does not carry the numeric identifier; resolving slug to an identifier is
// the enrollment resolver's job.
func (svc *Service) GetBySlug(ctx context.Context, slug string) (Course, error) {
	course, err := svc.backend.GetCourseBySlug(ctx, core.CleanString(slug, true /* lower */))
	if err != nil {
		return Course{}, core.NewRemoteError("get_course_by_slug", err)
	}
	if course == nil {
		return Course{}, ErrNotFound
	}
	return *course, nil
}

func (svc *Service) Modules(ctx context.Context, courseID int) ([]Module, error) {
	modules, err := svc.backend.GetCourseModules(ctx, courseID)
	if err != nil {
		return nil, core.NewRemoteError("get_course_modules", err)
	}
	return modules, nil
}

func (svc *Service) Create(ctx context.Context, sess core.Session, nc NewCourse, validate *validator.Validate) (CourseEntry, error) {
	cat, err := nc.Validate(validate)
	if err != nil {
		return CourseEntry{}, err
	}

	course := Course{
		Creator:        sess.Identity(),
		Name:           nc.Name,
		Slug:           nc.Slug,
		Description:    nc.Description,
		ImageLink:      nc.ImageLink,
		Topics:         nc.Topics,
		Category:       cat,
		EstimatedHours: nc.EstimatedHours,
	}
	id, err := svc.backend.AddCourse(ctx, course)
	if err != nil {
		return CourseEntry{}, core.NewRemoteError("add_course", err)
	}
	return CourseEntry{ID: id, Course: course}, nil
}

func (svc *Service) Update(ctx context.Context, courseID int, uc UpdateCourse, validate *validator.Validate) (CourseEntry, error) {
	orig, err := svc.getByID(ctx, courseID)
	if err != nil {
		return CourseEntry{}, err
	}

	updated, err := uc.Validate(orig.Course, validate)
	if err != nil {
		return CourseEntry{}, err
	}

	ok, err := svc.backend.EditCourse(ctx, courseID, updated)
	if err != nil {
		return CourseEntry{}, core.NewRemoteError("edit_course", err)
	}
	if !ok {
		return CourseEntry{}, ErrNotFound
	}
	return CourseEntry{ID: courseID, Course: updated}, nil
}

func (svc *Service) Delete(ctx context.Context, courseID int) error {
	ok, err := svc.backend.RemoveCourse(ctx, courseID)
	if err != nil {
		return core.NewRemoteError("remove_course", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ModulesBySlug resolves slug to the numeric course identifier first; the
// remote module listing is keyed by identifier only.
func (svc *Service) ModulesBySlug(ctx context.Context, slug string) ([]Module, error) {
	entries, err := svc.backend.GetCourses(ctx)
	if err != nil {
		return nil, core.NewRemoteError("get_courses", err)
	}
	slug = core.CleanString(slug, true /* lower */)
	for _, entry := range entries {
		if entry.Course.Slug == slug {
			return svc.Modules(ctx, entry.ID)
		}
	}
	return nil, ErrNotFound
}

// getByID scans the full collection; the remote service exposes no
// single-entry fetch that carries the identifier.
func (svc *Service) getByID(ctx context.Context, courseID int) (CourseEntry, error) {
	entries, err := svc.backend.GetCourses(ctx)
	if err != nil {
		return CourseEntry{}, core.NewRemoteError("get_courses", err)
	}
	for _, entry := range entries {
		if entry.ID == courseID {
			return entry, nil
		}
	}
	return CourseEntry{}, ErrNotFound
}
