package catalog

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
)

func newTestValidator() *validator.Validate {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		tag     string
		want    Category
		wantErr bool
	}{
		{tag: "Technology", want: CategoryTechnology},
		{tag: "Business", want: CategoryBusiness},
		{tag: "Design", want: CategoryDesign},
		{tag: "Marketing", want: CategoryMarketing},
		{tag: "Development", want: CategoryDevelopment},
		{tag: "Other", want: CategoryOther},
		{tag: "technology", wantErr: true}, // tags are case-sensitive
		{tag: "Cooking", wantErr: true},
		{tag: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			cat, err := ParseCategory(tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat)
		})
	}
}

func TestNewCourse_Validate(t *testing.T) {
	validate := newTestValidator()

	tests := []struct {
		name    string
		course  NewCourse
		want    Category
		wantErr bool
	}{
		{
			name:   "ok",
			course: NewCourse{Name: "Blockchain Basics", Slug: "blockchain-basics", Category: "Technology"},
			want:   CategoryTechnology,
		},
		{
			name:   "slug is lowercased before validation",
			course: NewCourse{Name: "Blockchain Basics", Slug: "Blockchain-Basics", Category: "Technology"},
			want:   CategoryTechnology,
		},
		{
			name:    "missing name",
			course:  NewCourse{Slug: "blockchain-basics", Category: "Technology"},
			wantErr: true,
		},
		{
			name:    "bad slug",
			course:  NewCourse{Name: "Blockchain Basics", Slug: "blockchain basics!", Category: "Technology"},
			wantErr: true,
		},
		{
			name:    "unknown category",
			course:  NewCourse{Name: "Blockchain Basics", Slug: "blockchain-basics", Category: "Cooking"},
			wantErr: true,
		},
		{
			name:    "bad image link",
			course:  NewCourse{Name: "Blockchain Basics", Slug: "blockchain-basics", Category: "Technology", ImageLink: "lol"},
			wantErr: true,
		},
		{
			name:    "negative hours",
			course:  NewCourse{Name: "Blockchain Basics", Slug: "blockchain-basics", Category: "Technology", EstimatedHours: -3},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := tt.course.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat)
		})
	}
}

func TestUpdateCourse_Validate(t *testing.T) {
	validate := newTestValidator()

	orig := Course{
		Creator:        "abc",
		Name:           "Blockchain Basics",
		Slug:           "blockchain-basics",
		Description:    "An introduction",
		Category:       CategoryTechnology,
		EstimatedHours: 6,
	}

	t.Run("only set fields override", func(t *testing.T) {
		uc := UpdateCourse{Name: "Blockchain Fundamentals", Category: "Development"}
		updated, err := uc.Validate(orig, validate)
		require.NoError(t, err)
		assert.Equal(t, "Blockchain Fundamentals", updated.Name)
		assert.Equal(t, CategoryDevelopment, updated.Category)
		assert.Equal(t, orig.Slug, updated.Slug)
		assert.Equal(t, orig.Description, updated.Description)
		assert.Equal(t, orig.EstimatedHours, updated.EstimatedHours)
		assert.Equal(t, orig.Creator, updated.Creator)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		uc := UpdateCourse{Category: "Cooking"}
		_, err := uc.Validate(orig, validate)
		assert.Error(t, err)
	})
}
