package enroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/enroll"
	emailsvc "github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/services/learnsvc/learnsvctest"
)

type testLogger struct {
	warnings []string
	errors   []string
}

func (l *testLogger) Enable(bool)                        {}
func (l *testLogger) Debug(string, ...interface{})       {}
func (l *testLogger) Info(string, ...interface{})        {}
func (l *testLogger) Warn(msg string, _ ...interface{})  { l.warnings = append(l.warnings, msg) }
func (l *testLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }
func (l *testLogger) Fatal(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

type testSession struct {
	identity string
	email    string
	token    string
}

func (s testSession) Authenticated() bool { return s.identity != "" }
func (s testSession) Identity() string    { return s.identity }
func (s testSession) Email() string       { return s.email }
func (s testSession) Token() string       { return s.token }

func seedFake() *learnsvctest.Fake {
	fake := learnsvctest.NewFake()
	fake.Identity = "abc"
	fake.AddCourseEntry(7, catalog.Course{
		Creator:        "admin",
		Name:           "Blockchain Basics",
		Slug:           "blockchain-basics",
		Category:       catalog.CategoryTechnology,
		EstimatedHours: 6,
	})
	fake.Modules[7] = []catalog.Module{
		{ID: 1, CourseID: 7, Title: "Intro", Order: 1},
		{ID: 2, CourseID: 7, Title: "Consensus", Order: 2},
	}
	return fake
}

func newService(fake *learnsvctest.Fake, logger *testLogger) *enroll.Service {
	return enroll.NewService(fake, nil, logger)
}

func TestService_ResolveIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("nil session", func(t *testing.T) {
		svc := newService(seedFake(), &testLogger{})
		_, err := svc.ResolveIdentity(ctx, nil)
		assert.Equal(t, enroll.ErrUnauthenticated, err)
	})

	t.Run("anonymous session", func(t *testing.T) {
		fake := seedFake()
		svc := newService(fake, &testLogger{})
		_, err := svc.ResolveIdentity(ctx, testSession{})
		assert.Equal(t, enroll.ErrUnauthenticated, err)
		assert.Zero(t, fake.Calls["whoami"]) // no remote call for anonymous callers
	})

	t.Run("remote corroborates", func(t *testing.T) {
		logger := &testLogger{}
		svc := newService(seedFake(), logger)
		identity, err := svc.ResolveIdentity(ctx, testSession{identity: "abc"})
		require.NoError(t, err)
		assert.Equal(t, "abc", identity)
		assert.Empty(t, logger.warnings)
	})

	t.Run("remote unreachable falls back to local", func(t *testing.T) {
		fake := seedFake()
		fake.WhoAmIErr = assert.AnError
		logger := &testLogger{}
		svc := newService(fake, logger)

		identity, err := svc.ResolveIdentity(ctx, testSession{identity: "abc"})
		require.NoError(t, err)
		assert.Equal(t, "abc", identity)
		assert.Len(t, logger.warnings, 1)
	})

	t.Run("identity mismatch falls back to local", func(t *testing.T) {
		fake := seedFake()
		fake.Identity = "xyz"
		logger := &testLogger{}
		svc := newService(fake, logger)

		identity, err := svc.ResolveIdentity(ctx, testSession{identity: "abc"})
		require.NoError(t, err)
		assert.Equal(t, "abc", identity)
		assert.Len(t, logger.warnings, 1)
	})
}

func TestService_ResolveEnrollment(t *testing.T) {
	ctx := context.Background()
	sess := testSession{identity: "abc"}

	t.Run("unauthenticated", func(t *testing.T) {
		fake := seedFake()
		svc := newService(fake, &testLogger{})

		res, err := svc.ResolveEnrollment(ctx, testSession{}, "blockchain-basics")
		assert.Equal(t, enroll.ErrUnauthenticated, err)
		assert.Equal(t, enroll.StatusUnauthenticated, res.Status)
		// no remote call of any kind is made
		assert.Empty(t, fake.Calls)
	})

	t.Run("unknown slug short-circuits", func(t *testing.T) {
		fake := seedFake()
		svc := newService(fake, &testLogger{})

		_, err := svc.ResolveEnrollment(ctx, sess, "no-such-course")
		assert.Equal(t, enroll.ErrNotFound, err)
		assert.Equal(t, 1, fake.Calls["get_course_by_slug"])
		assert.Zero(t, fake.Calls["get_courses"]) // collection scan skipped
		assert.Zero(t, fake.Calls["get_enrollments"])
	})

	t.Run("not enrolled", func(t *testing.T) {
		svc := newService(seedFake(), &testLogger{})

		res, err := svc.ResolveEnrollment(ctx, sess, "blockchain-basics")
		require.NoError(t, err)
		assert.Equal(t, 7, res.CourseID)
		assert.False(t, res.Enrolled)
		assert.Equal(t, enroll.StatusNotEnrolled, res.Status)
	})

	t.Run("enrolled", func(t *testing.T) {
		fake := seedFake()
		fake.Enrollments = []enroll.Enrollment{{Identity: "abc", CourseID: 7}}
		svc := newService(fake, &testLogger{})

		res, err := svc.ResolveEnrollment(ctx, sess, "blockchain-basics")
		require.NoError(t, err)
		assert.True(t, res.Enrolled)
		assert.Equal(t, enroll.StatusEnrolled, res.Status)
	})

	t.Run("another identity's record does not count", func(t *testing.T) {
		fake := seedFake()
		fake.Enrollments = []enroll.Enrollment{{Identity: "xyz", CourseID: 7}}
		svc := newService(fake, &testLogger{})

		res, err := svc.ResolveEnrollment(ctx, sess, "blockchain-basics")
		require.NoError(t, err)
		assert.False(t, res.Enrolled)
	})

	t.Run("remote failure", func(t *testing.T) {
		fake := seedFake()
		fake.Errs["get_enrollments"] = assert.AnError
		svc := newService(fake, &testLogger{})

		_, err := svc.ResolveEnrollment(ctx, sess, "blockchain-basics")
		require.Error(t, err)
		assert.True(t, core.IsRemote(err))
	})

	t.Run("duplicate slug: first match wins", func(t *testing.T) {
		fake := seedFake()
		fake.AddCourseEntry(8, catalog.Course{Name: "Blockchain Basics (copy)", Slug: "blockchain-basics", Category: catalog.CategoryTechnology})
		logger := &testLogger{}
		svc := newService(fake, logger)

		res, err := svc.ResolveEnrollment(ctx, sess, "blockchain-basics")
		require.NoError(t, err)
		assert.Equal(t, 7, res.CourseID)
		assert.Len(t, logger.errors, 1)
	})
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	sess := testSession{identity: "abc"}

	t.Run("creates enrollment and initializes progress", func(t *testing.T) {
		fake := seedFake()
		logger := &testLogger{}
		svc := newService(fake, logger)

		outcome, err := svc.Enroll(ctx, sess, 7)
		require.NoError(t, err)
		assert.Equal(t, enroll.OutcomeCreated, outcome)
		require.Len(t, fake.Enrollments, 1)
		assert.Equal(t, "abc", fake.Enrollments[0].Identity)
		assert.Len(t, fake.Enrollments[0].Progress, 2)
		assert.Empty(t, logger.warnings)
	})

	t.Run("unauthenticated: no remote call", func(t *testing.T) {
		fake := seedFake()
		svc := newService(fake, &testLogger{})

		_, err := svc.Enroll(ctx, testSession{}, 7)
		assert.Equal(t, enroll.ErrUnauthenticated, err)
		assert.Empty(t, fake.Calls)
	})

	t.Run("unresolved course id: no remote call", func(t *testing.T) {
		fake := seedFake()
		svc := newService(fake, &testLogger{})

		_, err := svc.Enroll(ctx, sess, 0)
		require.Error(t, err)
		_, isValidation := err.(*core.ValidationError)
		assert.True(t, isValidation)
		assert.Zero(t, fake.Calls["enroll_student"])
	})

	t.Run("second enroll converges on already_enrolled", func(t *testing.T) {
		fake := seedFake()
		svc := newService(fake, &testLogger{})

		outcome, err := svc.Enroll(ctx, sess, 7)
		require.NoError(t, err)
		assert.Equal(t, enroll.OutcomeCreated, outcome)

		// the remote rejects the duplicate with a bare false; the re-scan
		// reclassifies it
		outcome, err = svc.Enroll(ctx, sess, 7)
		require.NoError(t, err)
		assert.Equal(t, enroll.OutcomeAlreadyEnrolled, outcome)
		assert.Len(t, fake.Enrollments, 1)
	})

	t.Run("rejection without a record is a remote failure", func(t *testing.T) {
		fake := seedFake()
		fake.RejectEnroll = true
		svc := newService(fake, &testLogger{})

		_, err := svc.Enroll(ctx, sess, 7)
		require.Error(t, err)
		assert.True(t, core.IsRemote(err))
	})

	t.Run("progress init failure still enrolls", func(t *testing.T) {
		fake := seedFake()
		fake.FailProgressInit = true
		logger := &testLogger{}
		svc := newService(fake, logger)

		outcome, err := svc.Enroll(ctx, sess, 7)
		require.NoError(t, err)
		assert.Equal(t, enroll.OutcomeCreated, outcome)
		assert.Len(t, fake.Enrollments, 1)
		assert.Len(t, logger.warnings, 1)

		res, err := svc.ResolveEnrollment(ctx, sess, "blockchain-basics")
		require.NoError(t, err)
		assert.Equal(t, enroll.StatusEnrolled, res.Status)
	})

	t.Run("transport failure", func(t *testing.T) {
		fake := seedFake()
		fake.Errs["enroll_student"] = assert.AnError
		svc := newService(fake, &testLogger{})

		_, err := svc.Enroll(ctx, sess, 7)
		require.Error(t, err)
		assert.True(t, core.IsRemote(err))
		assert.Empty(t, fake.Enrollments)
	})

	t.Run("confirmation email sent", func(t *testing.T) {
		fake := seedFake()
		conf := &core.Config{TestMode: true}
		mailSvc := emailsvc.NewConsoleServiceMock(conf)
		emailsvc.SentMessages = nil
		svc := enroll.NewService(fake, mailSvc, &testLogger{})

		_, err := svc.Enroll(ctx, testSession{identity: "abc", email: "abc@test.cd"}, 7)
		require.NoError(t, err)
		// messages are sent on a separate goroutine
		require.Eventually(t, func() bool { return len(emailsvc.SentMessages) == 1 }, time.Second, 10*time.Millisecond)
		assert.Equal(t, "Enrollment confirmed", emailsvc.SentMessages[0].Subject)
	})
}

func TestService_MyCourses(t *testing.T) {
	ctx := context.Background()
	sess := testSession{identity: "abc"}

	fake := seedFake()
	fake.AddCourseEntry(9, catalog.Course{Name: "Design 101", Slug: "design-101", Category: catalog.CategoryDesign})
	fake.Enrollments = []enroll.Enrollment{
		{Identity: "abc", CourseID: 7, Progress: []enroll.ModuleProgress{{ModuleID: 1, Completed: true}, {ModuleID: 2}}},
		{Identity: "xyz", CourseID: 9},
		{Identity: "abc", CourseID: 404}, // course since removed
	}
	svc := newService(fake, &testLogger{})

	mine, err := svc.MyCourses(ctx, sess)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 7, mine[0].Entry.ID)
	assert.Equal(t, 50, mine[0].Percent)
}

func TestService_CompleteModule(t *testing.T) {
	ctx := context.Background()
	sess := testSession{identity: "abc"}

	fake := seedFake()
	fake.Enrollments = []enroll.Enrollment{{Identity: "abc", CourseID: 7}}
	svc := newService(fake, &testLogger{})

	require.NoError(t, svc.CompleteModule(ctx, sess, 7, 1))
	require.Len(t, fake.Enrollments[0].Progress, 1)
	assert.True(t, fake.Enrollments[0].Progress[0].Completed)

	// unknown module
	assert.Equal(t, enroll.ErrNotFound, svc.CompleteModule(ctx, sess, 7, 42))
}

func TestService_SetCurrentModule(t *testing.T) {
	ctx := context.Background()
	sess := testSession{identity: "abc"}

	fake := seedFake()
	fake.Enrollments = []enroll.Enrollment{{Identity: "abc", CourseID: 7, CurrentModuleID: 1}}
	svc := newService(fake, &testLogger{})

	require.NoError(t, svc.SetCurrentModule(ctx, sess, 7, 2))
	assert.Equal(t, 2, fake.Enrollments[0].CurrentModuleID)

	assert.Equal(t, enroll.ErrNotFound, svc.SetCurrentModule(ctx, sess, 7, 42))
}

func TestService_EnrollmentStats(t *testing.T) {
	ctx := context.Background()
	sess := testSession{identity: "abc"}

	fake := seedFake()
	fake.AddCourseEntry(9, catalog.Course{Name: "Design 101", Slug: "design-101", Category: catalog.CategoryDesign})
	fake.Enrollments = []enroll.Enrollment{
		{Identity: "abc", CourseID: 7},
		{Identity: "xyz", CourseID: 7},
		{Identity: "abc", CourseID: 9},
	}
	svc := newService(fake, &testLogger{})

	counts, err := svc.EnrollmentStats(ctx, sess)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, enroll.CourseCount{CourseID: 7, Name: "Blockchain Basics", Count: 2}, counts[0])
	assert.Equal(t, enroll.CourseCount{CourseID: 9, Name: "Design 101", Count: 1}, counts[1])

	total, err := svc.TotalEnrollments(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
