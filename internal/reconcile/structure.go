package reconcile

import (
	"fmt"
	"sort"

	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

const unknown = "Unknown"

// NoSalaryMessage is the summary message when no record carries a salary.
const NoSalaryMessage = "No jobs with valid salary data"

// Structurer turns collected source results into a report.
type Structurer struct {
	log *logging.Logger
}

// New creates a Structurer. A nil logger discards output.
func New(log *logging.Logger) *Structurer {
	if log == nil {
		log = logging.Nop()
	}
	return &Structurer{log: log}
}

// Structure merges postings with the statistics median and the
// compensation-database table. The output depends only on its inputs:
// records are sorted stably by experience level.
func (s *Structurer) Structure(postings []types.JobPosting, stats sources.Result[types.StatsMatch], comp sources.Result[types.CompTable]) (report types.Report) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("structuring failed", "panic", r)
			report = types.Report{
				Status:  types.ReportError,
				Message: fmt.Sprintf("structuring failed: %v", r),
				Rows:    [][]string{},
			}
		}
	}()

	if len(postings) == 0 {
		return types.Report{
			Status:  types.ReportEmpty,
			Message: "No job postings to structure",
			Records: []types.StructuredJob{},
			Rows:    [][]string{},
		}
	}

	median := statsMedian(stats)
	ref := compReference(comp)
	if ref.table != nil {
		s.log.Debug("compensation data available", "job_title", ref.table.JobTitle, "rows", ref.table.TotalRows)
	}

	records := make([]types.StructuredJob, 0, len(postings))
	for _, p := range postings {
		records = append(records, structureOne(p, median, ref))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ExperienceLevel < records[j].ExperienceLevel
	})

	s.log.Info("structured job postings", "count", len(records), "bls_median", median != nil, "compdb", ref.table != nil)
	return types.Report{
		Status:  types.ReportSuccess,
		Message: fmt.Sprintf("Structured %d jobs", len(records)),
		Records: records,
		Headers: Headers(),
		Rows:    Rows(records),
		Summary: Summarize(records, median, ref.comparison()),
	}
}

type compRef struct {
	table    *types.CompTable
	min, max *float64
}

func (r compRef) comparison() *types.CompDBComparison {
	if r.min == nil {
		return nil
	}
	return &types.CompDBComparison{MinAnnual: r.min, MaxAnnual: r.max, Available: true}
}

func compReference(res sources.Result[types.CompTable]) compRef {
	table, ok := res.Payload()
	if !ok {
		return compRef{}
	}
	ref := compRef{table: &table}
	if lo, hi, ok := CompDBRange(table); ok {
		ref.min, ref.max = &lo, &hi
	}
	return ref
}

func statsMedian(res sources.Result[types.StatsMatch]) *float64 {
	match, ok := res.Payload()
	if !ok {
		return nil
	}
	if match.MedianAnnual != nil {
		return ptr(*match.MedianAnnual)
	}
	if v, ok := ParseMedian(match.MedianPay); ok {
		return &v
	}
	return nil
}

func structureOne(p types.JobPosting, median *float64, ref compRef) types.StructuredJob {
	salary := types.NormalizedSalary{Currency: "USD"}
	if p.HasSalary() {
		salary = Normalize(p.SalaryText)
	}
	level := Bucket(p.ExperienceText)
	return types.StructuredJob{
		JobTitle:              orUnknown(p.Title),
		Company:               orUnknown(p.Company),
		Location:              orUnknown(p.Location),
		ExperienceLevel:       level,
		ExperienceDescription: level.Description(),
		Salary:                salary,
		BLSMedianAnnual:       median,
		CompDB:                ref.table,
		CompDBMinAnnual:       ref.min,
		CompDBMaxAnnual:       ref.max,
		RawSalaryText:         p.SalaryText,
		RawExperienceText:     p.ExperienceText,
		JobURL:                p.URL,
		PostedDate:            p.PostedDate,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// Summarize computes salary, experience, and reference comparisons over
// the records.
func Summarize(records []types.StructuredJob, median *float64, comp *types.CompDBComparison) *types.Summary {
	sum := &types.Summary{
		TotalJobs:              len(records),
		ExperienceDistribution: map[string]int{},
		CompDBComparison:       comp,
	}
	for _, l := range types.AllLevels() {
		sum.ExperienceDistribution[l.String()] = 0
	}

	var withSalary []types.StructuredJob
	for _, r := range records {
		sum.ExperienceDistribution[r.ExperienceLevel.String()]++
		if r.Salary.HasAnnual() {
			withSalary = append(withSalary, r)
		}
	}
	sum.JobsWithSalary = len(withSalary)
	if len(withSalary) == 0 {
		sum.Message = NoSalaryMessage
		return sum
	}

	rng := &types.SalaryRange{
		MinAnnual: *withSalary[0].Salary.MinAnnual,
		MaxAnnual: *withSalary[0].Salary.MaxAnnual,
	}
	var totalMin, totalMax float64
	for _, r := range withSalary {
		lo, hi := *r.Salary.MinAnnual, *r.Salary.MaxAnnual
		rng.MinAnnual = min(rng.MinAnnual, lo)
		rng.MaxAnnual = max(rng.MaxAnnual, hi)
		totalMin += lo
		totalMax += hi
	}
	rng.AvgMinAnnual = totalMin / float64(len(withSalary))
	rng.AvgMaxAnnual = totalMax / float64(len(withSalary))
	sum.SalaryRange = rng

	if median != nil && *median > 0 {
		cmp := &types.BLSComparison{MedianAnnual: *median}
		for _, r := range withSalary {
			switch {
			case *r.Salary.MaxAnnual > *median:
				cmp.JobsAbove++
			case *r.Salary.MaxAnnual < *median:
				cmp.JobsBelow++
			}
		}
		sum.BLSComparison = cmp
	}
	return sum
}
