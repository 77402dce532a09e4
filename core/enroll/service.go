package enroll

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
)

var (
	// errors
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrNotFound        = catalog.ErrNotFound
	ErrRejected        = errors.New("enrollment rejected by the remote service")
)

type (
	// Backend is the slice of the remote course/enrollment service consumed
	// by the resolvers. All calls are identity-implicit: authorization is
	// derived from the session credential on ctx, never passed explicitly.
	Backend interface {
		WhoAmI(ctx context.Context) (string, error)
		GetCourseBySlug(ctx context.Context, slug string) (*catalog.Course, error)
		GetCourses(ctx context.Context) ([]catalog.CourseEntry, error)
		GetCourseModules(ctx context.Context, courseID int) ([]catalog.Module, error)
		GetEnrollments(ctx context.Context) ([]Enrollment, error)
		GetCourseEnrollments(ctx context.Context, courseID int) ([]Enrollment, error)
		GetEnrollmentCount(ctx context.Context) (int, error)
		EnrollStudent(ctx context.Context, courseID int) (bool, error)
		InitializeCourseProgress(ctx context.Context, courseID int) (bool, error)
		UpdateCurrentModule(ctx context.Context, courseID, moduleID int) (bool, error)
		CompleteModule(ctx context.Context, courseID, moduleID int) (bool, error)
	}

	ServiceInterface interface {
		ResolveIdentity(ctx context.Context, sess core.Session) (string, error)
		ResolveEnrollment(ctx context.Context, sess core.Session, slug string) (Resolution, error)
		Enroll(ctx context.Context, sess core.Session, courseID int) (Outcome, error)
		MyCourses(ctx context.Context, sess core.Session) ([]MyCourse, error)
		SetCurrentModule(ctx context.Context, sess core.Session, courseID, moduleID int) error
		CompleteModule(ctx context.Context, sess core.Session, courseID, moduleID int) error
		EnrollmentStats(ctx context.Context, sess core.Session) ([]CourseCount, error)
		TotalEnrollments(ctx context.Context, sess core.Session) (int, error)
	}

	Service struct {
		backend Backend
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(backend Backend, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{backend: backend, mailSvc: mailSvc, logger: logger}
}

// ResolveIdentity extracts the caller identity from the local session and
// corroborates it with the remote service's own view of the caller. The
// remote-confirmed identity wins when corroboration succeeds; when the remote
// is unreachable or disagrees, the local token is used with a recorded
// warning. A local-only identity is fine for optimistic UI: every mutating
// call is re-checked by the remote service regardless.
func (svc *Service) ResolveIdentity(ctx context.Context, sess core.Session) (string, error) {
	if sess == nil || !sess.Authenticated() {
		return "", ErrUnauthenticated
	}
	local := sess.Identity()
	if local == "" {
		return "", ErrUnauthenticated
	}

	remote, err := svc.backend.WhoAmI(core.ContextWithToken(ctx, sess.Token()))
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("whoami corroboration failed, falling back to local identity %q", local), err)
		return local, nil
	}
	if remote != local {
		svc.logger.Warn(fmt.Sprintf("identity mismatch: local %q, remote %q; falling back to local", local, remote))
		return local, nil
	}
	return remote, nil
}

// ResolveEnrollment maps a course slug and the session identity to an
// enrollment state.
func (svc *Service) ResolveEnrollment(ctx context.Context, sess core.Session, slug string) (Resolution, error) {
	identity, err := svc.ResolveIdentity(ctx, sess)
	if err != nil {
		return Resolution{Status: StatusUnauthenticated}, err
	}
	ctx = core.ContextWithToken(ctx, sess.Token())
	slug = core.CleanString(slug, true /* lower */)

	// single-course fetch first; an unknown slug short-circuits before any
	// collection call is made
	course, err := svc.backend.GetCourseBySlug(ctx, slug)
	if err != nil {
		return Resolution{}, core.NewRemoteError("get_course_by_slug", err)
	}
	if course == nil {
		return Resolution{}, ErrNotFound
	}

	courseID, err := svc.lookupCourseID(ctx, slug)
	if err != nil {
		return Resolution{}, err
	}

	enrolled, err := svc.isEnrolled(ctx, identity, courseID)
	if err != nil {
		return Resolution{}, err
	}

	status := StatusNotEnrolled
	if enrolled {
		status = StatusEnrolled
	}
	return Resolution{CourseID: courseID, Enrolled: enrolled, Status: status}, nil
}

// Enroll requests creation of an enrollment record for courseID under the
// session identity. The state only flips to Enrolled after the remote call
// (or the reclassification fallback) confirms it.
func (svc *Service) Enroll(ctx context.Context, sess core.Session, courseID int) (Outcome, error) {
	identity, err := svc.ResolveIdentity(ctx, sess)
	if err != nil {
		return 0, err
	}
	// fail fast on an unresolved course identifier; no remote call made
	if courseID <= 0 {
		return 0, core.NewValidationError(
			errors.New("course not resolved"),
			core.FieldError{Field: "course_id", Error: "a resolved course identifier is required"},
		)
	}
	ctx = core.ContextWithToken(ctx, sess.Token())

	ok, err := svc.backend.EnrollStudent(ctx, courseID)
	if err != nil {
		return 0, core.NewRemoteError("enroll_student", err)
	}
	if !ok {
		// the rejection does not distinguish "already enrolled" from other
		// failures; re-scan the enrollment collection and reclassify when
		// the record now exists. This is the sole consistency backstop for
		// concurrent creation from another session or tab.
		enrolled, scanErr := svc.isEnrolled(ctx, identity, courseID)
		if scanErr != nil {
			svc.logger.Warn(fmt.Sprintf("reclassification scan failed for course %d", courseID), scanErr)
			return 0, core.NewRemoteError("enroll_student", ErrRejected)
		}
		if enrolled {
			return OutcomeAlreadyEnrolled, nil
		}
		return 0, core.NewRemoteError("enroll_student", ErrRejected)
	}

	// best-effort secondary step, logged and never rolled back
	if ok, err := svc.backend.InitializeCourseProgress(ctx, courseID); err != nil || !ok {
		svc.logger.Warn(fmt.Sprintf("initialize_course_progress failed for course %d, identity %q", courseID, identity), err)
	}
	svc.sendConfirmation(ctx, sess, courseID)

	return OutcomeCreated, nil
}

// MyCourses joins the caller's enrollment records with their catalog entries
// and computes per-course completion.
func (svc *Service) MyCourses(ctx context.Context, sess core.Session) ([]MyCourse, error) {
	identity, err := svc.ResolveIdentity(ctx, sess)
	if err != nil {
		return nil, err
	}
	ctx = core.ContextWithToken(ctx, sess.Token())

	records, err := svc.backend.GetEnrollments(ctx)
	if err != nil {
		return nil, core.NewRemoteError("get_enrollments", err)
	}
	entries, err := svc.backend.GetCourses(ctx)
	if err != nil {
		return nil, core.NewRemoteError("get_courses", err)
	}
	byID := make(map[int]catalog.CourseEntry, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}

	var mine []MyCourse
	for _, rec := range records {
		if rec.Identity != identity {
			continue
		}
		entry, ok := byID[rec.CourseID]
		if !ok {
			// enrollment pointing at a removed course; skip it
			continue
		}
		mine = append(mine, MyCourse{
			Entry:      entry,
			Enrollment: rec,
			Percent:    svc.percentComplete(ctx, rec),
		})
	}
	return mine, nil
}

// SetCurrentModule records the module the student navigated to.
func (svc *Service) SetCurrentModule(ctx context.Context, sess core.Session, courseID, moduleID int) error {
	if _, err := svc.ResolveIdentity(ctx, sess); err != nil {
		return err
	}
	ctx = core.ContextWithToken(ctx, sess.Token())

	ok, err := svc.backend.UpdateCurrentModule(ctx, courseID, moduleID)
	if err != nil {
		return core.NewRemoteError("update_current_module", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// CompleteModule marks a module as completed for the session identity.
func (svc *Service) CompleteModule(ctx context.Context, sess core.Session, courseID, moduleID int) error {
	if _, err := svc.ResolveIdentity(ctx, sess); err != nil {
		return err
	}
	ctx = core.ContextWithToken(ctx, sess.Token())

	ok, err := svc.backend.CompleteModule(ctx, courseID, moduleID)
	if err != nil {
		return core.NewRemoteError("complete_module", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// EnrollmentStats tallies enrollments per course for the admin dashboard.
func (svc *Service) EnrollmentStats(ctx context.Context, sess core.Session) ([]CourseCount, error) {
	if _, err := svc.ResolveIdentity(ctx, sess); err != nil {
		return nil, err
	}
	ctx = core.ContextWithToken(ctx, sess.Token())

	entries, err := svc.backend.GetCourses(ctx)
	if err != nil {
		return nil, core.NewRemoteError("get_courses", err)
	}
	counts := make([]CourseCount, 0, len(entries))
	for _, entry := range entries {
		records, err := svc.backend.GetCourseEnrollments(ctx, entry.ID)
		if err != nil {
			return nil, core.NewRemoteError("get_course_enrollments", err)
		}
		counts = append(counts, CourseCount{CourseID: entry.ID, Name: entry.Course.Name, Count: len(records)})
	}
	return counts, nil
}

// TotalEnrollments returns the global enrollment count.
func (svc *Service) TotalEnrollments(ctx context.Context, sess core.Session) (int, error) {
	if _, err := svc.ResolveIdentity(ctx, sess); err != nil {
		return 0, err
	}
	count, err := svc.backend.GetEnrollmentCount(core.ContextWithToken(ctx, sess.Token()))
	if err != nil {
		return 0, core.NewRemoteError("get_enrollment_count", err)
	}
	return count, nil
}

// lookupCourseID scans the full course collection for the entry whose slug
// matches; the single-course fetch does not carry the identifier. A missing
// match is treated as not-found, not as an inconsistency to propagate.
func (svc *Service) lookupCourseID(ctx context.Context, slug string) (int, error) {
	entries, err := svc.backend.GetCourses(ctx)
	if err != nil {
		return 0, core.NewRemoteError("get_courses", err)
	}
	var id, matches int
	for _, entry := range entries {
		if entry.Course.Slug != slug {
			continue
		}
		matches++
		if matches == 1 {
			id = entry.ID
		}
	}
	if matches == 0 {
		return 0, ErrNotFound
	}
	if matches > 1 {
		// the remote service should guarantee slug uniqueness; first match
		// wins, but this deserves somebody's attention
		svc.logger.Error(fmt.Sprintf("%d course entries share slug %q; using first match (course %d)", matches, slug, id))
	}
	return id, nil
}

func (svc *Service) isEnrolled(ctx context.Context, identity string, courseID int) (bool, error) {
	records, err := svc.backend.GetEnrollments(ctx)
	if err != nil {
		return false, core.NewRemoteError("get_enrollments", err)
	}
	for _, rec := range records {
		if rec.Identity == identity && rec.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (svc *Service) percentComplete(ctx context.Context, rec Enrollment) int {
	if rec.Completed {
		return 100
	}
	modules, err := svc.backend.GetCourseModules(ctx, rec.CourseID)
	if err != nil || len(modules) == 0 {
		return 0
	}
	var done int
	for _, prog := range rec.Progress {
		if prog.Completed {
			done++
		}
	}
	return done * 100 / len(modules)
}

func (svc *Service) sendConfirmation(ctx context.Context, sess core.Session, courseID int) {
	if svc.mailSvc == nil || sess.Email() == "" {
		return
	}
	course := "your new course"
	if entries, err := svc.backend.GetCourses(ctx); err == nil {
		for _, entry := range entries {
			if entry.ID == courseID {
				course = entry.Course.Name
				break
			}
		}
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: sess.Email()}},
		Subject: "Enrollment confirmed",
		BodyStr: fmt.Sprintf("You are now enrolled in %s. Happy learning!", course),
	})
}
