package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Category is the closed set of course categories. The remote service
// transmits it as a tagged union keyed by one of these names; unknown tags
// are rejected at the boundary instead of defaulting silently.
type Category string

const (
	CategoryTechnology  Category = "Technology"
	CategoryBusiness    Category = "Business"
	CategoryDesign      Category = "Design"
	CategoryMarketing   Category = "Marketing"
	CategoryDevelopment Category = "Development"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryTechnology,
	CategoryBusiness,
	CategoryDesign,
	CategoryMarketing,
	CategoryDevelopment,
	CategoryOther,
}

// ParseCategory maps a wire variant tag to a Category.
func ParseCategory(tag string) (Category, error) {
	for _, cat := range Categories {
		if tag == string(cat) {
			return cat, nil
		}
	}
	return "", fmt.Errorf("unknown course category %q", tag)
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

type Course struct {
	Creator        string   `json:"creator"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description"`
	ImageLink      string   `json:"image_link"`
	Topics         []string `json:"topics"`
	Category       Category `json:"category"`
	EstimatedHours int      `json:"estimated_time_in_hours"`
}

// CourseEntry pairs a Course with the numeric identifier assigned by the
// remote service. The identifier is not guessable and never reused.
type CourseEntry struct {
	ID     int    `json:"course_id"`
	Course Course `json:"course"`
}

type Module struct {
	ID       int    `json:"id"`
	CourseID int    `json:"course_id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
}

// NewCourse contains information needed to publish a new Course.
type NewCourse struct {
	Name           string   `json:"name" validate:"required"`
	Slug           string   `json:"slug" validate:"required,slug"`
	Description    string   `json:"description"`
	ImageLink      string   `json:"image_link" validate:"omitempty,url"`
	Topics         []string `json:"topics"`
	Category       string   `json:"category" validate:"required"`
	EstimatedHours int      `json:"estimated_time_in_hours" validate:"omitempty,min=1"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) (Category, error) {
	nc.Name = core.CleanString(nc.Name)
	nc.Slug = core.CleanString(nc.Slug, true /* lower */)
	nc.Category = core.CleanString(nc.Category)

	if err := validate.Struct(nc); err != nil {
		return "", err
	}
	cat, err := ParseCategory(nc.Category)
	if err != nil {
		return "", core.NewValidationError(err, core.FieldError{Field: "category", Error: err.Error()})
	}
	return cat, nil
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name           string   `json:"name"`
	Slug           string   `json:"slug" validate:"omitempty,slug"`
	Description    string   `json:"description"`
	ImageLink      string   `json:"image_link" validate:"omitempty,url"`
	Topics         []string `json:"topics"`
	Category       string   `json:"category"`
	EstimatedHours int      `json:"estimated_time_in_hours" validate:"omitempty,min=1"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) (Course, error) {
	uc.Name = core.CleanString(uc.Name)
	uc.Slug = core.CleanString(uc.Slug, true /* lower */)
	uc.Category = core.CleanString(uc.Category)

	if err := validate.Struct(uc); err != nil {
		return Course{}, err
	}

	// only override set fields
	updated := orig
	if uc.Name != "" {
		updated.Name = uc.Name
	}
	if uc.Slug != "" {
		updated.Slug = uc.Slug
	}
	if uc.Description != "" {
		updated.Description = uc.Description
	}
	if uc.ImageLink != "" {
		updated.ImageLink = uc.ImageLink
	}
	if uc.Topics != nil {
		updated.Topics = uc.Topics
	}
	if uc.Category != "" {
		cat, err := ParseCategory(uc.Category)
		if err != nil {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "category", Error: err.Error()})
		}
		updated.Category = cat
	}
	if uc.EstimatedHours != 0 {
		updated.EstimatedHours = uc.EstimatedHours
	}
	return updated, nil
}
