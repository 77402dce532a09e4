// Package learnsvc holds the RPC client stubs for the remote
// course/enrollment service.
package learnsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/enroll"
)

// APIError carries status/body for non-2xx responses so callers can decide
// what to surface.
type APIError struct {
	Method     string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("learnsvc: %s failed: status=%d body=%s", e.Method, e.StatusCode, snippet(e.Body, 500))
}

func snippet(b []byte, max int) string {
	s := string(bytes.TrimSpace(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

var (
	_ catalog.Backend = (*Client)(nil)
	_ enroll.Backend  = (*Client)(nil)
)

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout}, // per-request; no retry policy here
	}
}

/* -------- Wire types -------- */

// categoryTag is the object-with-one-key variant encoding of the course
// category, e.g. {"Technology":null}. Unknown tags are rejected.
type categoryTag catalog.Category

func (t categoryTag) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{string(t): nil})
}

func (t *categoryTag) UnmarshalJSON(data []byte) error {
	var variant map[string]json.RawMessage
	if err := json.Unmarshal(data, &variant); err != nil {
		return err
	}
	if len(variant) != 1 {
		return fmt.Errorf("learnsvc: category variant must have exactly one tag, got %d", len(variant))
	}
	for tag := range variant {
		cat, err := catalog.ParseCategory(tag)
		if err != nil {
			return err
		}
		*t = categoryTag(cat)
	}
	return nil
}

type courseDTO struct {
	Creator                    string      `json:"creator"`
	CourseName                 string      `json:"course_name"`
	CourseTopics               []string    `json:"course_topics"`
	CourseCategory             categoryTag `json:"course_category"`
	CourseSlug                 string      `json:"course_slug"`
	CourseDesc                 string      `json:"course_desc"`
	CourseImageLink            string      `json:"course_image_link"`
	CourseEstimatedTimeInHours int         `json:"course_estimated_time_in_hours"`
}

func (d courseDTO) domain() catalog.Course {
	return catalog.Course{
		Creator:        d.Creator,
		Name:           d.CourseName,
		Slug:           d.CourseSlug,
		Description:    d.CourseDesc,
		ImageLink:      d.CourseImageLink,
		Topics:         d.CourseTopics,
		Category:       catalog.Category(d.CourseCategory),
		EstimatedHours: d.CourseEstimatedTimeInHours,
	}
}

func toCourseDTO(c catalog.Course) courseDTO {
	return courseDTO{
		Creator:                    c.Creator,
		CourseName:                 c.Name,
		CourseTopics:               c.Topics,
		CourseCategory:             categoryTag(c.Category),
		CourseSlug:                 c.Slug,
		CourseDesc:                 c.Description,
		CourseImageLink:            c.ImageLink,
		CourseEstimatedTimeInHours: c.EstimatedHours,
	}
}

type courseEntryDTO struct {
	CourseID int       `json:"course_id"`
	Course   courseDTO `json:"course"`
}

type moduleDTO struct {
	ID       int    `json:"id"`
	CourseID int    `json:"course_id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
}

type moduleProgressDTO struct {
	ModuleID     int    `json:"module_id"`
	Completed    bool   `json:"completed"`
	LastAccessed uint64 `json:"last_accessed"`
}

type enrollmentDTO struct {
	UserID           string              `json:"user_id"`
	CourseID         int                 `json:"course_id"`
	EnrolledDate     uint64              `json:"enrolled_date"`
	LastAccessedDate uint64              `json:"last_accessed_date"`
	CurrentModuleID  int                 `json:"current_module_id"`
	ModulesProgress  []moduleProgressDTO `json:"modules_progress"`
	Completed        bool                `json:"completed"`
}

func (d enrollmentDTO) domain() enroll.Enrollment {
	rec := enroll.Enrollment{
		Identity:        d.UserID,
		CourseID:        d.CourseID,
		EnrolledAt:      enroll.FromBackendTime(d.EnrolledDate),
		LastAccessedAt:  enroll.FromBackendTime(d.LastAccessedDate),
		CurrentModuleID: d.CurrentModuleID,
		Completed:       d.Completed,
	}
	for _, prog := range d.ModulesProgress {
		rec.Progress = append(rec.Progress, enroll.ModuleProgress{
			ModuleID:     prog.ModuleID,
			Completed:    prog.Completed,
			LastAccessed: enroll.FromBackendTime(prog.LastAccessed),
		})
	}
	return rec
}

/* -------- Stubs -------- */

func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	var identity string
	if err := c.call(ctx, "whoami", nil, &identity); err != nil {
		return "", err
	}
	return identity, nil
}

// GetCourseBySlug returns nil when no course is published under slug. The
// service encodes the option as a 0- or 1-element array.
func (c *Client) GetCourseBySlug(ctx context.Context, slug string) (*catalog.Course, error) {
	var opt []courseDTO
	if err := c.call(ctx, "get_course_by_slug", args(slug), &opt); err != nil {
		return nil, err
	}
	if len(opt) == 0 {
		return nil, nil
	}
	course := opt[0].domain()
	return &course, nil
}

func (c *Client) GetCourses(ctx context.Context) ([]catalog.CourseEntry, error) {
	var dtos []courseEntryDTO
	if err := c.call(ctx, "get_courses", nil, &dtos); err != nil {
		return nil, err
	}
	entries := make([]catalog.CourseEntry, 0, len(dtos))
	for _, dto := range dtos {
		entries = append(entries, catalog.CourseEntry{ID: dto.CourseID, Course: dto.Course.domain()})
	}
	return entries, nil
}

func (c *Client) GetCourseModules(ctx context.Context, courseID int) ([]catalog.Module, error) {
	var dtos []moduleDTO
	if err := c.call(ctx, "get_course_modules", args(courseID), &dtos); err != nil {
		return nil, err
	}
	modules := make([]catalog.Module, 0, len(dtos))
	for _, dto := range dtos {
		modules = append(modules, catalog.Module(dto))
	}
	return modules, nil
}

func (c *Client) AddCourse(ctx context.Context, course catalog.Course) (int, error) {
	var id int
	if err := c.call(ctx, "add_course", args(toCourseDTO(course)), &id); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Client) EditCourse(ctx context.Context, courseID int, course catalog.Course) (bool, error) {
	var ok bool
	if err := c.call(ctx, "edit_course", args(courseID, toCourseDTO(course)), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Client) RemoveCourse(ctx context.Context, courseID int) (bool, error) {
	var ok bool
	if err := c.call(ctx, "remove_course", args(courseID), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Client) GetEnrollments(ctx context.Context) ([]enroll.Enrollment, error) {
	var dtos []enrollmentDTO
	if err := c.call(ctx, "get_enrollments", nil, &dtos); err != nil {
		return nil, err
	}
	records := make([]enroll.Enrollment, 0, len(dtos))
	for _, dto := range dtos {
		records = append(records, dto.domain())
	}
	return records, nil
}

func (c *Client) GetCourseEnrollments(ctx context.Context, courseID int) ([]enroll.Enrollment, error) {
	var dtos []enrollmentDTO
	if err := c.call(ctx, "get_course_enrollments", args(courseID), &dtos); err != nil {
		return nil, err
	}
	records := make([]enroll.Enrollment, 0, len(dtos))
	for _, dto := range dtos {
		records = append(records, dto.domain())
	}
	return records, nil
}

func (c *Client) GetEnrollmentCount(ctx context.Context) (int, error) {
	var count int
	if err := c.call(ctx, "get_enrollment_count", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) EnrollStudent(ctx context.Context, courseID int) (bool, error) {
	var ok bool
	if err := c.call(ctx, "enroll_student", args(courseID), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Client) InitializeCourseProgress(ctx context.Context, courseID int) (bool, error) {
	var ok bool
	if err := c.call(ctx, "initialize_course_progress", args(courseID), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Client) UpdateCurrentModule(ctx context.Context, courseID, moduleID int) (bool, error) {
	var ok bool
	if err := c.call(ctx, "update_current_module", args(courseID, moduleID), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Client) CompleteModule(ctx context.Context, courseID, moduleID int) (bool, error) {
	var ok bool
	if err := c.call(ctx, "complete_module", args(courseID, moduleID), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

/* -------- Transport -------- */

func args(vals ...interface{}) []interface{} { return vals }

// call performs one stub invocation: POST {base}/api/v1/{method} with
// positional JSON args, decoding the single JSON reply into reply. Exactly
// one attempt is made; a failed call is surfaced once and the caller decides
// whether to trigger it again.
func (c *Client) call(ctx context.Context, method string, in []interface{}, reply interface{}) error {
	if in == nil {
		in = []interface{}{}
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("learnsvc: encoding %s args: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/"+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("learnsvc: building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := core.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("learnsvc: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("learnsvc: reading %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Body: body}
	}
	if reply == nil {
		return nil
	}
	if err := json.Unmarshal(body, reply); err != nil {
		return fmt.Errorf("learnsvc: decoding %s reply: %w", method, err)
	}
	return nil
}
