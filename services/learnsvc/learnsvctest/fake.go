// Package learnsvctest provides an in-memory stand-in for the remote
// course/enrollment service, for tests.
package learnsvctest

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/enroll"
)

// Fake implements the catalog and enroll Backend interfaces against
// in-memory tables, mimicking the remote service's observable behavior:
// enroll_student rejects duplicates with a bare false, identities are derived
// from the session rather than passed explicitly.
type Fake struct {
	mu sync.RWMutex

	Identity    string // whoami reply; the identity mutations are recorded under
	Courses     []catalog.CourseEntry
	Modules     map[int][]catalog.Module
	Enrollments []enroll.Enrollment

	// failure switches
	WhoAmIErr        error
	Errs             map[string]error // per-method forced transport errors
	RejectEnroll     bool             // enroll_student replies false
	FailProgressInit bool             // initialize_course_progress replies false

	Calls map[string]int // per-method call counts

	nextCourseID int
}

var (
	_ catalog.Backend = (*Fake)(nil)
	_ enroll.Backend  = (*Fake)(nil)
)

func NewFake() *Fake {
	return &Fake{
		Modules:      make(map[int][]catalog.Module),
		Errs:         make(map[string]error),
		Calls:        make(map[string]int),
		nextCourseID: 1,
	}
}

// AddCourseEntry seeds a course under a fixed identifier.
func (f *Fake) AddCourseEntry(id int, course catalog.Course) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Courses = append(f.Courses, catalog.CourseEntry{ID: id, Course: course})
	if id >= f.nextCourseID {
		f.nextCourseID = id + 1
	}
}

func (f *Fake) record(method string) error {
	f.Calls[method]++
	return f.Errs[method]
}

func (f *Fake) WhoAmI(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("whoami"); err != nil {
		return "", err
	}
	if f.WhoAmIErr != nil {
		return "", f.WhoAmIErr
	}
	return f.Identity, nil
}

func (f *Fake) GetCourseBySlug(ctx context.Context, slug string) (*catalog.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_course_by_slug"); err != nil {
		return nil, err
	}
	for _, entry := range f.Courses {
		if entry.Course.Slug == slug {
			course := entry.Course
			return &course, nil
		}
	}
	return nil, nil
}

func (f *Fake) GetCourses(ctx context.Context) ([]catalog.CourseEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_courses"); err != nil {
		return nil, err
	}
	return append([]catalog.CourseEntry(nil), f.Courses...), nil
}

func (f *Fake) GetCourseModules(ctx context.Context, courseID int) ([]catalog.Module, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_course_modules"); err != nil {
		return nil, err
	}
	return append([]catalog.Module(nil), f.Modules[courseID]...), nil
}

func (f *Fake) AddCourse(ctx context.Context, course catalog.Course) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("add_course"); err != nil {
		return 0, err
	}
	id := f.nextCourseID
	f.nextCourseID++
	f.Courses = append(f.Courses, catalog.CourseEntry{ID: id, Course: course})
	return id, nil
}

func (f *Fake) EditCourse(ctx context.Context, courseID int, course catalog.Course) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("edit_course"); err != nil {
		return false, err
	}
	for i, entry := range f.Courses {
		if entry.ID == courseID {
			f.Courses[i].Course = course
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) RemoveCourse(ctx context.Context, courseID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("remove_course"); err != nil {
		return false, err
	}
	for i, entry := range f.Courses {
		if entry.ID == courseID {
			f.Courses = append(f.Courses[:i], f.Courses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) GetEnrollments(ctx context.Context) ([]enroll.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_enrollments"); err != nil {
		return nil, err
	}
	return append([]enroll.Enrollment(nil), f.Enrollments...), nil
}

func (f *Fake) GetCourseEnrollments(ctx context.Context, courseID int) ([]enroll.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_course_enrollments"); err != nil {
		return nil, err
	}
	var records []enroll.Enrollment
	for _, rec := range f.Enrollments {
		if rec.CourseID == courseID {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (f *Fake) GetEnrollmentCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_enrollment_count"); err != nil {
		return 0, err
	}
	return len(f.Enrollments), nil
}

func (f *Fake) EnrollStudent(ctx context.Context, courseID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("enroll_student"); err != nil {
		return false, err
	}
	if f.RejectEnroll {
		return false, nil
	}
	for _, rec := range f.Enrollments {
		if rec.Identity == f.Identity && rec.CourseID == courseID {
			return false, nil // duplicate; indistinguishable from other rejections
		}
	}
	now := time.Now().UTC()
	f.Enrollments = append(f.Enrollments, enroll.Enrollment{
		Identity:        f.Identity,
		CourseID:        courseID,
		EnrolledAt:      now,
		LastAccessedAt:  now,
		CurrentModuleID: 1,
	})
	return true, nil
}

func (f *Fake) InitializeCourseProgress(ctx context.Context, courseID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("initialize_course_progress"); err != nil {
		return false, err
	}
	if f.FailProgressInit {
		return false, nil
	}
	modules := f.Modules[courseID]
	if len(modules) == 0 {
		return false, nil
	}
	for i, rec := range f.Enrollments {
		if rec.Identity == f.Identity && rec.CourseID == courseID {
			progress := make([]enroll.ModuleProgress, 0, len(modules))
			for _, mod := range modules {
				progress = append(progress, enroll.ModuleProgress{ModuleID: mod.ID})
			}
			f.Enrollments[i].Progress = progress
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) UpdateCurrentModule(ctx context.Context, courseID, moduleID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_current_module"); err != nil {
		return false, err
	}
	if !f.hasModule(courseID, moduleID) {
		return false, nil
	}
	for i, rec := range f.Enrollments {
		if rec.Identity == f.Identity && rec.CourseID == courseID {
			f.Enrollments[i].CurrentModuleID = moduleID
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) CompleteModule(ctx context.Context, courseID, moduleID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("complete_module"); err != nil {
		return false, err
	}
	if !f.hasModule(courseID, moduleID) {
		return false, nil
	}
	now := time.Now().UTC()
	for i, rec := range f.Enrollments {
		if rec.Identity != f.Identity || rec.CourseID != courseID {
			continue
		}
		for j, prog := range rec.Progress {
			if prog.ModuleID == moduleID {
				f.Enrollments[i].Progress[j].Completed = true
				f.Enrollments[i].Progress[j].LastAccessed = now
				return true, nil
			}
		}
		f.Enrollments[i].Progress = append(f.Enrollments[i].Progress, enroll.ModuleProgress{
			ModuleID: moduleID, Completed: true, LastAccessed: now,
		})
		return true, nil
	}
	return false, nil
}

func (f *Fake) hasModule(courseID, moduleID int) bool {
	for _, mod := range f.Modules[courseID] {
		if mod.ID == moduleID {
			return true
		}
	}
	return false
}
