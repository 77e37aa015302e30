package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/comp-collector/internal/types"
)

func TestParseSalary(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		min, max float64
		period   Period
		currency string
	}{
		{"hourly range", "$30 - $40 an hour", 30, 40, PerHour, "USD"},
		{"annual range", "$85,000 - $95,500 a year", 85000, 95500, PerYear, "USD"},
		{"single annual", "$120,000 per annum", 120000, 120000, PerYear, "USD"},
		{"monthly", "$4,000 a month", 4000, 4000, PerMonth, "USD"},
		{"euro", "€50,000 - €60,000 annual salary", 50000, 60000, PerYear, "EUR"},
		{"pound", "£25.50 an hour", 25.50, 25.50, PerHour, "GBP"},
		{"decimals", "$22.50 - $28.75 an hour", 22.50, 28.75, PerHour, "USD"},
		{"one decimal digit", "$22.5 - $25 an hour", 22.5, 25, PerHour, "USD"},
		{"reversed bounds", "$40 - $30 an hour", 30, 40, PerHour, "USD"},
		{"hourly then annual phrase", "$30 - $40 an hour / $85,000 a year", 30, 40, PerHour, "USD"},
		{"annual then hourly phrase", "$85,000 a year / $40 an hour", 85000, 85000, PerYear, "USD"},
		{"slash period kept", "$25 / hr", 25, 25, PerHour, "USD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseSalary(tt.text)
			require.NotNil(t, p.Min)
			require.NotNil(t, p.Max)
			assert.InDelta(t, tt.min, *p.Min, 0.001)
			assert.InDelta(t, tt.max, *p.Max, 0.001)
			assert.Equal(t, tt.period, p.Period)
			assert.Equal(t, tt.currency, p.Currency)
		})
	}
}

func TestParseSalary_NoNumbers(t *testing.T) {
	p := ParseSalary("Competitive")
	assert.Nil(t, p.Min)
	assert.Nil(t, p.Max)
	assert.Equal(t, PerHour, p.Period)

	p = ParseSalary("")
	assert.Nil(t, p.Min)
	assert.Equal(t, "USD", p.Currency)
}

func TestNormalize_HourlyRoundTrip(t *testing.T) {
	s := Normalize("$25 - $35 an hour")
	require.NotNil(t, s.MinHourly)
	require.NotNil(t, s.MinAnnual)
	assert.Equal(t, 25.0, *s.MinHourly)
	assert.Equal(t, 35.0, *s.MaxHourly)
	assert.Equal(t, 52000.0, *s.MinAnnual)
	assert.Equal(t, 72800.0, *s.MaxAnnual)
	assert.Equal(t, *s.MinAnnual, *s.MinHourly*HoursPerYear)
	assert.Equal(t, *s.MaxHourly, *s.MaxAnnual/HoursPerYear)
}

func TestNormalize_OneDecimalDigit(t *testing.T) {
	s := Normalize("$22.5 - $25 an hour")
	require.NotNil(t, s.MinHourly)
	assert.Equal(t, 22.5, *s.MinHourly)
	assert.Equal(t, 25.0, *s.MaxHourly)
	assert.Equal(t, 46800.0, *s.MinAnnual)
	assert.Equal(t, 52000.0, *s.MaxAnnual)
	assert.LessOrEqual(t, *s.MinAnnual, *s.MaxAnnual)
}

func TestNormalize_AnnualHasNoHourly(t *testing.T) {
	s := Normalize("$90,000 - $110,000 a year")
	assert.Nil(t, s.MinHourly)
	assert.Nil(t, s.MaxHourly)
	assert.Equal(t, 90000.0, *s.MinAnnual)
	assert.Equal(t, 110000.0, *s.MaxAnnual)

	s = Normalize("$5,000 a month")
	assert.Nil(t, s.MinHourly)
	assert.Equal(t, 60000.0, *s.MinAnnual)
}

func TestNormalize_Unparsed(t *testing.T) {
	s := Normalize("Depends on experience")
	assert.False(t, s.HasAnnual())
	assert.Nil(t, s.MinHourly)
	assert.Equal(t, "USD", s.Currency)
}

func TestParseMedian(t *testing.T) {
	v, ok := ParseMedian("$59,810 per year")
	require.True(t, ok)
	assert.Equal(t, 59810.0, v)

	_, ok = ParseMedian("Not found")
	assert.False(t, ok)
}

func TestCompDBRange(t *testing.T) {
	table := types.CompTable{
		Headers: []string{"Percentile", "Base Salary", "Hourly"},
		Rows: [][]string{
			{"10th", "$98,000", "$47.12"},
			{"50th", "$131,400", "$63.17"},
			{"90th", "$165,250", "$79.45"},
		},
	}
	lo, hi, ok := CompDBRange(table)
	require.True(t, ok)
	assert.InDelta(t, 98000, lo, 0.01)
	assert.InDelta(t, 165250, hi, 0.01)

	_, _, ok = CompDBRange(types.CompTable{Rows: [][]string{{"10th", "n/a"}}})
	assert.False(t, ok)
}

func TestCompDBRange_HourlyOnly(t *testing.T) {
	lo, hi, ok := CompDBRange(types.CompTable{Rows: [][]string{{"$20.00"}, {"$30.00"}}})
	require.True(t, ok)
	assert.Equal(t, 41600.0, lo)
	assert.Equal(t, 62400.0, hi)
}
