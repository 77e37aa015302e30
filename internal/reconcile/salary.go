// Package reconcile merges job postings with the two reference sources into
// structured records, a flat table, and summary statistics.
package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/comp-collector/internal/types"
)

// Period is the pay period a salary was quoted in.
type Period string

// Pay periods.
const (
	PerHour  Period = "hour"
	PerMonth Period = "month"
	PerYear  Period = "year"
)

// HoursPerYear converts hourly rates: 40 hours a week, 52 weeks.
const HoursPerYear = 40 * 52

var salaryNumber = regexp.MustCompile(`\$?(\d+(?:,\d{3})*(?:\.\d{1,2})?)`)

// ParsedSalary is a salary as quoted, before annualizing.
type ParsedSalary struct {
	Min      *float64
	Max      *float64
	Currency string
	Period   Period
}

// phraseStarts are the ways an extracted salary phrase can begin.
var phraseStarts = []string{"$", "€", "£", "up to", "starting", "from", "begins at"}

// firstPhrase keeps the first of several joined salary phrases, so an
// hourly quote is never paired with an annual one. A separator followed by
// a period word ("$25 / hr") stays inside the phrase.
func firstPhrase(text string) string {
	parts := strings.Split(text, types.SalaryPhraseSeparator)
	out := parts[0]
	for _, part := range parts[1:] {
		for _, start := range phraseStarts {
			if strings.HasPrefix(part, start) {
				return out
			}
		}
		out += types.SalaryPhraseSeparator + part
	}
	return out
}

// ParseSalary reads the currency, pay period, and bounds from the first
// salary phrase in text. The first two numbers are the bounds, ordered low
// to high; a single number is both. The period defaults to hourly.
func ParseSalary(text string) ParsedSalary {
	p := ParsedSalary{Currency: "USD", Period: PerHour}
	text = firstPhrase(strings.ToLower(strings.TrimSpace(text)))
	if text == "" {
		return p
	}

	switch {
	case strings.Contains(text, "€") || strings.Contains(text, "euro"):
		p.Currency = "EUR"
	case strings.Contains(text, "£") || strings.Contains(text, "pound"):
		p.Currency = "GBP"
	}

	switch {
	case strings.Contains(text, "year") || strings.Contains(text, "annum") || strings.Contains(text, "annual"):
		p.Period = PerYear
	case strings.Contains(text, "month"):
		p.Period = PerMonth
	}

	var nums []float64
	for _, m := range salaryNumber.FindAllStringSubmatch(text, 2) {
		if v, ok := parseNumber(m[1]); ok {
			nums = append(nums, v)
		}
	}
	switch len(nums) {
	case 0:
	case 1:
		p.Min, p.Max = &nums[0], &nums[0]
	default:
		if nums[0] > nums[1] {
			nums[0], nums[1] = nums[1], nums[0]
		}
		p.Min, p.Max = &nums[0], &nums[1]
	}
	return p
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v, err == nil
}

// Annualize converts an amount quoted per period to a yearly amount.
func Annualize(amount float64, period Period) float64 {
	switch period {
	case PerHour:
		return amount * HoursPerYear
	case PerMonth:
		return amount * 12
	default:
		return amount
	}
}

// Normalize parses salary text into annual bounds, plus hourly bounds when
// the text quoted an hourly rate.
func Normalize(text string) types.NormalizedSalary {
	p := ParseSalary(text)
	out := types.NormalizedSalary{Currency: p.Currency}
	if p.Min != nil {
		out.MinAnnual = ptr(Annualize(*p.Min, p.Period))
		out.MaxAnnual = ptr(Annualize(*p.Max, p.Period))
		if p.Period == PerHour {
			out.MinHourly = ptr(*p.Min)
			out.MaxHourly = ptr(*p.Max)
		}
	}
	return out
}

// ParseMedian reads the first dollar amount from a median pay string.
func ParseMedian(pay string) (float64, bool) {
	m := salaryNumber.FindStringSubmatch(pay)
	if m == nil {
		return 0, false
	}
	return parseNumber(m[1])
}

// hourlyCeiling separates hourly from annual amounts in reference tables.
const hourlyCeiling = 500

// CompDBRange is the lowest and highest annual amounts in a market data
// table. Amounts under $500 are taken as hourly.
func CompDBRange(table types.CompTable) (lo, hi float64, ok bool) {
	for _, row := range table.Rows {
		for _, cell := range row {
			if !strings.Contains(cell, "$") {
				continue
			}
			for _, m := range salaryNumber.FindAllStringSubmatch(cell, -1) {
				v, parsed := parseNumber(m[1])
				if !parsed || v <= 0 {
					continue
				}
				if v < hourlyCeiling {
					v = Annualize(v, PerHour)
				}
				if !ok || v < lo {
					lo = v
				}
				if !ok || v > hi {
					hi = v
				}
				ok = true
			}
		}
	}
	return lo, hi, ok
}

func ptr(v float64) *float64 {
	return &v
}
