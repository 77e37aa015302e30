package types

import "strings"

// StatsMatch is the statistics-site lookup for one title.
type StatsMatch struct {
	JobTitle     string        `json:"job_title"`
	MatchedTitle string        `json:"matched_title"`
	URL          string        `json:"url"`
	Group        string        `json:"group"`
	GroupTitle   string        `json:"group_title"`
	MedianPay    string        `json:"median_pay"`
	MedianAnnual *float64      `json:"median_annual,omitempty"`
	MatchScore   int           `json:"match_score"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	CostOfLiving *CostOfLiving `json:"cost_of_living,omitempty"`
}

// MedianPayNotFound marks a resolved page without a recognizable median.
const MedianPayNotFound = "Not found"

// Alternative is a lower-scoring canonical title offered as a suggestion.
type Alternative struct {
	Title string `json:"title"`
	Score int    `json:"score"`
	URL   string `json:"url,omitempty"`
}

// CostOfLiving is the optional cost-of-living comparison for the location.
type CostOfLiving struct {
	Location             string `json:"location"`
	URL                  string `json:"url"`
	ComparisonToNational string `json:"comparison_to_national,omitempty"`
	Success              bool   `json:"success"`
	Error                string `json:"error,omitempty"`
}

// Wizard inputs used when a request leaves them unset.
const (
	DefaultEducation       = "Bachelor's"
	DefaultExperienceYears = 5
)

// CompDBRequest parameterizes one compensation-database wizard run.
type CompDBRequest struct {
	JobTitle        string `json:"job_title"`
	City            string `json:"city"`
	EducationLevel  string `json:"education_level,omitempty"`
	ExperienceYears *int   `json:"experience_years,omitempty"`
	Industry        string `json:"industry,omitempty"`
	CompanySize     string `json:"company_size,omitempty"`
}

// CompTable is the market data table read from the compensation database.
type CompTable struct {
	JobTitle        string     `json:"job_title"`
	City            string     `json:"city"`
	EducationLevel  string     `json:"education_level"`
	ExperienceYears int        `json:"experience_years"`
	Headers         []string   `json:"table_headers"`
	Rows            [][]string `json:"table_rows"`
	RawText         string     `json:"full_page_text"`
	TotalRows       int        `json:"total_rows"`
	ElapsedSeconds  float64    `json:"scraping_time"`
	FailedStep      string     `json:"failed_step,omitempty"`
}

// WithDefaults fills a blank education level and a missing or negative
// experience with DefaultEducation and DefaultExperienceYears.
func (r CompDBRequest) WithDefaults() CompDBRequest {
	if strings.TrimSpace(r.EducationLevel) == "" {
		r.EducationLevel = DefaultEducation
	}
	if r.ExperienceYears == nil || *r.ExperienceYears < 0 {
		r.ExperienceYears = IntPtr(DefaultExperienceYears)
	}
	return r
}
