// Package types holds the request, posting, record and report shapes shared
// by the interpreter, the source adapters, the reconciler and the API.
package types

import (
	"github.com/go-playground/validator/v10"
)

// DefaultMaxResults is used when a request leaves max_results unset.
const DefaultMaxResults = 50

// SearchRequest is a fully interpreted job search. It is not modified after
// Validate succeeds.
type SearchRequest struct {
	JobTitle        string `json:"job_title" validate:"required,min=1,max=200"`
	Location        string `json:"location" validate:"required,min=1,max=200"`
	MaxResults      int    `json:"max_results" validate:"min=1,max=1000"`
	EducationLevel  string `json:"education_level,omitempty"`
	ExperienceYears *int   `json:"experience_years,omitempty" validate:"omitempty,min=0,max=60"`
	Industry        string `json:"industry,omitempty"`
	CompanySize     string `json:"company_size,omitempty"`
	Certifications  string `json:"certifications,omitempty"`
}

// Validate validates the SearchRequest using the validator.
func (r *SearchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// WithDefaults returns a copy with MaxResults defaulted.
func (r SearchRequest) WithDefaults() SearchRequest {
	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
	return r
}

// ExperienceOr returns the requested years of experience, or def when unset.
func (r SearchRequest) ExperienceOr(def int) int {
	if r.ExperienceYears == nil {
		return def
	}
	return *r.ExperienceYears
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
