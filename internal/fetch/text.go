package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplate is stripped from every page before text extraction.
const boilerplate = "nav, footer, header, script, style, noscript, iframe, svg, " +
	".ad, .advertisement, .cookie-banner, .popup"

// DefaultTextSelectors are tried in order when a caller has no better idea
// where a page keeps its content.
func DefaultTextSelectors() []string {
	return []string{"main", "article", "[role=main]", ".content", "#content", ".main-content", "#main-content"}
}

// ExtractMainText returns the text of the first element matching one of
// contentSelectors, or of the body. Boilerplate and noiseSelectors are
// removed first.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(boilerplate).Remove()
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	root := doc.Find("body")
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			root = s
			break
		}
	}
	return CleanWhitespace(root.Text()), nil
}

// CleanWhitespace collapses runs of spaces within lines and drops blank lines.
func CleanWhitespace(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Join(fields, " "))
	}
	return sb.String()
}
