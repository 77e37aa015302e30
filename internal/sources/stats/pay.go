package stats

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HoursPerYear converts hourly medians to annual.
const HoursPerYear = 2080

var (
	payPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Median pay[:\s]+\$[\d,]+(?:\s+(?:per year|annually))?`),
		regexp.MustCompile(`(?i)median annual wage[^$]*\$[\d,]+`),
		regexp.MustCompile(`(?i)Median annual wage[:\s]+\$[\d,]+`),
	}
	anyDollar    = regexp.MustCompile(`\$[\d,]+(?:\s+(?:per year|annually|annual))?`)
	dollarAmount = regexp.MustCompile(`\$([\d,]+(?:\.\d+)?)(\s*(?:per|an|/)\s*(hour|hr))?`)
)

// ExtractMedianPay finds the median pay text on an occupation page. A
// labeled table cell wins, then a labeled sentence, then the first dollar
// amount on the page. It returns "" when the page has no dollar amounts.
func ExtractMedianPay(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if pay := tablePay(doc); pay != "" {
		return pay
	}

	var found string
	doc.Find("div, section, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		for _, re := range payPatterns {
			if m := re.FindString(text); m != "" {
				found = strings.TrimSpace(m)
				return false
			}
		}
		return true
	})
	if found != "" {
		return found
	}

	return strings.TrimSpace(anyDollar.FindString(doc.Text()))
}

func tablePay(doc *goquery.Document) string {
	var found string
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		for i := 0; i < cells.Length(); i++ {
			label := strings.ToLower(cellText(cells.Eq(i)))
			if !strings.Contains(label, "median pay") && !strings.Contains(label, "median annual wage") {
				continue
			}
			if i+1 < cells.Length() {
				if next := cellText(cells.Eq(i + 1)); strings.Contains(next, "$") {
					found = next
					return false
				}
			} else if strings.Contains(label, "$") {
				found = cellText(cells.Eq(i))
				return false
			}
		}
		return true
	})
	return found
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// ParseMedianAnnual reads the first dollar amount in pay text as an annual
// figure. Hourly amounts are multiplied by HoursPerYear.
func ParseMedianAnnual(pay string) (float64, bool) {
	m := dollarAmount.FindStringSubmatch(pay)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if m[3] != "" {
		v *= HoursPerYear
	}
	return v, true
}
