package stats

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/comp-collector/internal/fetch"
	"github.com/jonathan/comp-collector/internal/types"
)

var nationalComparison = regexp.MustCompile(`(?i)[^.!?]*\bnational average\b[^.!?]*[.!?]?`)

// CostOfLivingURL builds the comparison page URL for "City, State" as
// <base>/<State>-<City>. Spaces become dashes.
func CostOfLivingURL(base, location string) string {
	city, state, _ := strings.Cut(location, ",")
	slug := dashed(city)
	if s := dashed(state); s != "" {
		slug = s + "-" + slug
	}
	return strings.TrimRight(base, "/") + "/" + slug
}

func dashed(s string) string {
	return strings.Join(strings.Fields(s), "-")
}

// costOfLiving fetches the comparison page. It never returns an error; a
// failure is recorded on the result.
func (a *Adapter) costOfLiving(ctx context.Context, location string) *types.CostOfLiving {
	col := &types.CostOfLiving{Location: location, URL: CostOfLivingURL(a.costBaseURL, location)}

	page, err := a.pages.Fetch(ctx, col.URL)
	if err != nil {
		col.Error = err.Error()
		a.log.Warn("cost of living lookup failed", "location", location, "error", err)
		return col
	}

	sentence := ExtractNationalComparison(page.HTML)
	if sentence == "" {
		col.Error = "no national comparison found on page"
		return col
	}
	col.ComparisonToNational = sentence
	col.Success = true
	return col
}

// ExtractNationalComparison returns the first sentence on the page that
// compares the location against the national average. Text blocks are
// searched before the page as a whole.
func ExtractNationalComparison(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var found string
	doc.Find("p, li, td, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = nationalComparison.FindString(flatten(s.Text()))
		return found == ""
	})
	if found == "" {
		found = nationalComparison.FindString(flatten(doc.Text()))
	}
	return strings.TrimSpace(found)
}

func flatten(text string) string {
	return strings.Join(strings.Fields(fetch.CleanWhitespace(text)), " ")
}
