package types

// Structuring statuses.
const (
	ReportSuccess = "success"
	ReportEmpty   = "empty"
	ReportError   = "error"
)

// Report is the structured output of one request.
type Report struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Records []StructuredJob `json:"structured_jobs"`
	Headers []string        `json:"headers"`
	Rows    [][]string      `json:"rows"`
	Summary *Summary        `json:"summary,omitempty"`
}

// Summary aggregates the structured records.
type Summary struct {
	TotalJobs              int               `json:"total_jobs"`
	JobsWithSalary         int               `json:"jobs_with_salary"`
	SalaryRange            *SalaryRange      `json:"salary_range,omitempty"`
	ExperienceDistribution map[string]int    `json:"experience_distribution"`
	BLSComparison          *BLSComparison    `json:"bls_comparison,omitempty"`
	CompDBComparison       *CompDBComparison `json:"salary_com_comparison,omitempty"`
	Message                string            `json:"message,omitempty"`
}

// SalaryRange summarizes annual salary bounds across records.
type SalaryRange struct {
	MinAnnual    float64 `json:"min_annual"`
	MaxAnnual    float64 `json:"max_annual"`
	AvgMinAnnual float64 `json:"avg_min_annual"`
	AvgMaxAnnual float64 `json:"avg_max_annual"`
}

// BLSComparison counts records above and below the statistics median.
type BLSComparison struct {
	MedianAnnual float64 `json:"bls_median_annual"`
	JobsAbove    int     `json:"jobs_above_bls"`
	JobsBelow    int     `json:"jobs_below_bls"`
}

// CompDBComparison carries the compensation-database reference range.
type CompDBComparison struct {
	MinAnnual *float64 `json:"min_annual"`
	MaxAnnual *float64 `json:"max_annual"`
	Available bool     `json:"available"`
}
