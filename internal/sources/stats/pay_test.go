package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMedianPay_Table(t *testing.T) {
	html := `<table><tr><th>2024 Median Pay</th><td>$86,070 per year<br>$41.38 per hour</td></tr></table>
<p>Median pay: $1 per year</p>`
	assert.Equal(t, "$86,070 per year$41.38 per hour", ExtractMedianPay(html))
}

func TestExtractMedianPay_TableLabelWithoutDollar(t *testing.T) {
	html := `<table><tr><td>Median annual wage</td><td>see below</td></tr></table>
<p>The median annual wage for nurses was $86,070 in May 2024.</p>`
	assert.Equal(t, "median annual wage for nurses was $86,070", ExtractMedianPay(html))
}

func TestExtractMedianPay_Sentence(t *testing.T) {
	html := `<div><p>Median pay: $52,000 per year</p></div>`
	assert.Equal(t, "Median pay: $52,000 per year", ExtractMedianPay(html))
}

func TestExtractMedianPay_FirstDollar(t *testing.T) {
	html := `<body><span>Entry wages start near $31,000 annually</span></body>`
	assert.Equal(t, "$31,000 annually", ExtractMedianPay(html))
}

func TestExtractMedianPay_None(t *testing.T) {
	assert.Equal(t, "", ExtractMedianPay(`<p>No numbers here</p>`))
}

func TestParseMedianAnnual(t *testing.T) {
	v, ok := ParseMedianAnnual("$86,070 per year$41.38 per hour")
	require.True(t, ok)
	assert.Equal(t, 86070.0, v)

	v, ok = ParseMedianAnnual("$25.00 per hour")
	require.True(t, ok)
	assert.Equal(t, 52000.0, v)

	_, ok = ParseMedianAnnual("Not found")
	assert.False(t, ok)
}

func TestCostOfLivingURL(t *testing.T) {
	assert.Equal(t, "https://cl.test/calc/WA-Seattle", CostOfLivingURL("https://cl.test/calc/", "Seattle, WA"))
	assert.Equal(t, "https://cl.test/calc/New-York", CostOfLivingURL("https://cl.test/calc", "New York"))
}

func TestExtractNationalComparison(t *testing.T) {
	html := `<html><script>var x = "national average";</script><body>
<h1>Seattle</h1><p>Cost of living in Seattle, WA is 49% higher than the national average. Housing is expensive.</p></body></html>`
	assert.Equal(t, "Cost of living in Seattle, WA is 49% higher than the national average.", ExtractNationalComparison(html))
}
