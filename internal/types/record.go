package types

import "fmt"

// ExperienceLevel is one of five ordinal experience buckets.
type ExperienceLevel int

// Experience buckets, lowest first.
const (
	Level1 ExperienceLevel = iota + 1
	Level2
	Level3
	Level4
	Level5
)

var levelDescriptions = map[ExperienceLevel]string{
	Level1: "No experience at all",
	Level2: "Recent graduate from technical school, no field experience, EPA cert",
	Level3: "1-2 years experience in the field, NATE core cert",
	Level4: "3-5 years in the field, passed a NATE specialty exam",
	Level5: "5+ years in the field, passed 3 NATE specialty exams",
}

// AllLevels lists the buckets in order.
func AllLevels() []ExperienceLevel {
	return []ExperienceLevel{Level1, Level2, Level3, Level4, Level5}
}

// Valid reports whether l is one of the five buckets.
func (l ExperienceLevel) Valid() bool {
	return l >= Level1 && l <= Level5
}

func (l ExperienceLevel) String() string {
	return fmt.Sprintf("level%d", int(l))
}

// Description returns the human-readable bucket description.
func (l ExperienceLevel) Description() string {
	return levelDescriptions[l]
}

// NormalizedSalary holds a parsed salary. Annual fields are set whenever a
// salary parsed; hourly fields only when the source quoted an hourly rate.
type NormalizedSalary struct {
	MinAnnual *float64 `json:"min_annual"`
	MaxAnnual *float64 `json:"max_annual"`
	MinHourly *float64 `json:"min_hourly"`
	MaxHourly *float64 `json:"max_hourly"`
	Currency  string   `json:"currency"`
}

// HasAnnual reports whether both annual bounds are set.
func (s NormalizedSalary) HasAnnual() bool {
	return s.MinAnnual != nil && s.MaxAnnual != nil
}

// StructuredJob is a posting merged with both reference sources.
type StructuredJob struct {
	JobTitle              string           `json:"job_title"`
	Company               string           `json:"company"`
	Location              string           `json:"location"`
	ExperienceLevel       ExperienceLevel  `json:"experience_level"`
	ExperienceDescription string           `json:"experience_years"`
	Salary                NormalizedSalary `json:"salary"`
	BLSMedianAnnual       *float64         `json:"bls_median_annual"`
	CompDB                *CompTable       `json:"salary_com_data,omitempty"`
	CompDBMinAnnual       *float64         `json:"salary_com_min_annual"`
	CompDBMaxAnnual       *float64         `json:"salary_com_max_annual"`
	RawSalaryText         string           `json:"raw_salary_text"`
	RawExperienceText     string           `json:"raw_experience_text"`
	JobURL                string           `json:"job_url"`
	PostedDate            string           `json:"posted_date"`
}
