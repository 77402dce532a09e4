package enroll

import (
	"time"

	"github.com/trezcool/darasa/core/catalog"
)

// The remote service reports timestamps as integer nanoseconds; local date
// arithmetic works on millisecond-epoch values, so wire values are divided
// by 1,000,000 at the boundary.
const backendTimeUnitsPerMilli = 1_000_000

// FromBackendTime converts a service timestamp to a UTC time.Time.
func FromBackendTime(v uint64) time.Time {
	ms := int64(v / backendTimeUnitsPerMilli)
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}

// ToBackendTime converts a time.Time back to the service's integer unit.
func ToBackendTime(t time.Time) uint64 {
	return uint64(t.UnixNano())
}

type ModuleProgress struct {
	ModuleID     int       `json:"module_id"`
	Completed    bool      `json:"completed"`
	LastAccessed time.Time `json:"last_accessed"` // UTC
}

// Enrollment is the server-held fact that an identity is registered for a
// course. It is created exactly once per (identity, course) pair and never
// deleted by this flow.
type Enrollment struct {
	Identity        string           `json:"user_id"`
	CourseID        int              `json:"course_id"`
	EnrolledAt      time.Time        `json:"enrolled_date"`       // UTC
	LastAccessedAt  time.Time        `json:"last_accessed_date"`  // UTC
	CurrentModuleID int              `json:"current_module_id"`
	Completed       bool             `json:"completed"`
	Progress        []ModuleProgress `json:"modules_progress"`
}

// Status is the per-course, per-identity enrollment state.
//
//	Unknown → Unauthenticated | NotEnrolled → Enrolled
//
// Enrolled is terminal for this flow; there is no un-enroll.
type Status int

const (
	StatusUnknown Status = iota
	StatusUnauthenticated
	StatusNotEnrolled
	StatusEnrolled
)

var statusNames = map[Status]string{
	StatusUnknown:         "unknown",
	StatusUnauthenticated: "unauthenticated",
	StatusNotEnrolled:     "not_enrolled",
	StatusEnrolled:        "enrolled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Resolution is the outcome of mapping a course slug and an authenticated
// identity to an enrollment state.
type Resolution struct {
	CourseID int    `json:"course_id"`
	Enrolled bool   `json:"is_enrolled"`
	Status   Status `json:"status"`
}

// Outcome distinguishes a freshly created enrollment from an idempotent
// convergence on an existing record.
type Outcome int

const (
	OutcomeCreated Outcome = iota + 1
	OutcomeAlreadyEnrolled
)

func (o Outcome) String() string {
	if o == OutcomeAlreadyEnrolled {
		return "already_enrolled"
	}
	return "created"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// MyCourse joins an enrollment record with its catalog entry for the
// student's course list.
type MyCourse struct {
	Entry      catalog.CourseEntry `json:"entry"`
	Enrollment Enrollment          `json:"enrollment"`
	Percent    int                 `json:"percent"`
}

// CourseCount is a per-course enrollment tally for the admin dashboard.
type CourseCount struct {
	CourseID int    `json:"course_id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}
