package reconcile

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jonathan/comp-collector/internal/types"
)

// NotAvailable fills table cells without a value.
const NotAvailable = "N/A"

var headers = []string{
	"Job Title",
	"Min Salary (Hourly)",
	"Max Salary (Hourly)",
	"Min Salary (Annual)",
	"Max Salary (Annual)",
	"BLS Median (Annual)",
	"Salary.com Min (Annual)",
	"Salary.com Max (Annual)",
}

var amounts = message.NewPrinter(language.English)

// Headers returns the table column names.
func Headers() []string {
	return append([]string(nil), headers...)
}

// Rows renders one table row per record, in record order.
func Rows(records []types.StructuredJob) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.JobTitle,
			Hourly(r.Salary.MinHourly),
			Hourly(r.Salary.MaxHourly),
			Annual(r.Salary.MinAnnual),
			Annual(r.Salary.MaxAnnual),
			Annual(r.BLSMedianAnnual),
			Annual(r.CompDBMinAnnual),
			Annual(r.CompDBMaxAnnual),
		})
	}
	return rows
}

// Hourly formats an hourly rate as $12.50.
func Hourly(v *float64) string {
	if v == nil || *v == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("$%.2f", *v)
}

// Annual formats a yearly amount as $52,000.
func Annual(v *float64) string {
	if v == nil || *v == 0 {
		return NotAvailable
	}
	return amounts.Sprintf("$%d", int64(math.Round(*v)))
}
