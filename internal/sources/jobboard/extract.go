package jobboard

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/jonathan/comp-collector/internal/types"
)

// RelevanceCutoff is the minimum title similarity for a posting to count.
const RelevanceCutoff = 0.7

const money = `\$\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?`

var (
	salaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(money + `\s*(?:[-–—]|to)\s*` + money + `\s+(?:an hour|a year|per hour|per year|hourly|annually)`),
		regexp.MustCompile(`(?:up to|starting at|from|starting|begins at)\s+` + money + `\s+(?:an hour|a year|per hour|per year|hourly|annually)`),
		regexp.MustCompile(money + `\s+(?:an hour|a year|per hour|per year|hourly|annually)`),
		regexp.MustCompile(money + `\s*[-–—]\s*` + money + `\s*/\s*(?:hr|hour|year|yr)`),
		regexp.MustCompile(money + `\s*/\s*(?:hr|hour|year|yr)`),
	}
	salaryBlacklist = []string{"401k", "bonus", "pto", "vacation", "commission", "insurance", "benefits"}
	cardBlacklist   = []string{"401k", "benefits", "pto"}
	detailBlacklist = []string{"401k", "benefits", "pto", "vacation", "insurance"}
	detailPeriod    = []string{"hour", "year", "annual", "per"}
	dollarDigits    = regexp.MustCompile(`\$\d+`)

	sentenceSplit = regexp.MustCompile(`[.!?\n;]`)
	entryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`entry\s*level`),
		regexp.MustCompile(`no\s*experience\s*(required|necessary|needed)?`),
		regexp.MustCompile(`\b0\s*(years?|yrs?)`),
		regexp.MustCompile(`will\s*train`),
		regexp.MustCompile(`training\s*provided`),
		regexp.MustCompile(`new\s*graduate`),
		regexp.MustCompile(`recent\s*graduate`),
	}
	numberWords = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen", "twenty",
	}
	numberWordPattern  = regexp.MustCompile(`\b(` + strings.Join(numberWords, "|") + `)\b`)
	experiencePatterns = []struct {
		re     *regexp.Regexp
		format func(m []string) string
	}{
		{regexp.MustCompile(`(\d+)\s*(?:to|–|-)\s*(\d+)\s*(?:years?|yrs?)`), func(m []string) string { return m[1] + "-" + m[2] + " years experience" }},
		{regexp.MustCompile(`(\d+)\s*\+\s*(?:years?|yrs?)`), func(m []string) string { return m[1] + "+ years experience" }},
		{regexp.MustCompile(`(?:at\s*least|min(?:imum)?|requires?|need(?:s)?|must\s*have)\s*(\d+)\s*(?:years?|yrs?)`), func(m []string) string { return "Minimum " + m[1] + " years experience" }},
		{regexp.MustCompile(`(\d+)\s*(?:years?|yrs?)\s*(?:experience|exp)?`), func(m []string) string { return m[1] + " years experience" }},
	}
)

// EntryLevel is reported for postings that require no experience.
const EntryLevel = "Entry level / No experience required"

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.ToLower(strings.TrimSpace(text))
}

// ExtractSalary finds salary phrases with a pay period in free text. A
// phrase whose surrounding clause mentions a benefit (bonus, 401k, PTO...)
// is ignored, as is one overlapping a phrase already taken. The rest are
// joined in order of appearance.
func ExtractSalary(text string) string {
	text = strings.ReplaceAll(normalizeText(text), "\n", " ")
	if text == "" {
		return types.SalaryNotSpecified
	}

	type span struct{ start, end int }
	var taken []span
	overlaps := func(start, end int) bool {
		for _, sp := range taken {
			if start < sp.end && sp.start < end {
				return true
			}
		}
		return false
	}
	seen := map[string]bool{}
	for _, re := range salaryPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlaps(loc[0], loc[1]) {
				continue
			}
			m := strings.TrimSpace(text[loc[0]:loc[1]])
			if seen[m] || containsAnyWord(clauseAround(text, loc[0], loc[1]), salaryBlacklist) {
				continue
			}
			seen[m] = true
			taken = append(taken, span{loc[0], loc[1]})
		}
	}
	if len(taken) == 0 {
		return types.SalaryNotSpecified
	}
	sort.Slice(taken, func(i, j int) bool { return taken[i].start < taken[j].start })
	found := make([]string, len(taken))
	for i, sp := range taken {
		found[i] = strings.TrimSpace(text[sp.start:sp.end])
	}
	return strings.Join(found, types.SalaryPhraseSeparator)
}

// clauseWindow bounds how far clauseAround looks on either side of a match.
const clauseWindow = 80

// clauseAround returns the clause holding text[start:end]: it extends at
// most clauseWindow bytes each way and stops at a sentence break. A period
// only ends a clause when followed by a space, so "$22.50" stays whole.
func clauseAround(text string, start, end int) string {
	lo := max(0, start-clauseWindow)
	hi := min(len(text), end+clauseWindow)
	for i := start - 1; i >= lo; i-- {
		if isClauseBreak(text, i) {
			lo = i + 1
			break
		}
	}
	for i := end; i < hi; i++ {
		if isClauseBreak(text, i) {
			hi = i
			break
		}
	}
	return text[lo:hi]
}

func isClauseBreak(text string, i int) bool {
	switch text[i] {
	case ';', '!', '?':
		return true
	case '.':
		return i+1 == len(text) || text[i+1] == ' '
	}
	return false
}

// ExtractExperience summarizes the experience requirement in free text.
func ExtractExperience(text string) string {
	text = normalizeText(text)
	if text == "" {
		return types.NotSpecified
	}

	for _, sentence := range sentenceSplit.Split(text, -1) {
		for _, re := range entryPatterns {
			if re.MatchString(sentence) {
				return EntryLevel
			}
		}
	}

	converted := numberWordPattern.ReplaceAllStringFunc(text, func(w string) string {
		for i, n := range numberWords {
			if n == w {
				return strconv.Itoa(i)
			}
		}
		return w
	})
	for _, sentence := range sentenceSplit.Split(converted, -1) {
		sentence = strings.TrimSpace(sentence)
		for _, p := range experiencePatterns {
			if m := p.re.FindStringSubmatch(sentence); m != nil {
				return p.format(m)
			}
		}
	}
	return types.NotSpecified
}

func containsAnyWord(s string, words []string) bool {
	s = strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// similarity is the character-level sequence-matcher ratio in [0, 1].
func similarity(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// Relevant reports whether a posting title is close enough to any allowed
// title. Comparison is case-insensitive.
func Relevant(title string, allowed []string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, a := range allowed {
		if similarity(t, strings.ToLower(strings.TrimSpace(a))) >= RelevanceCutoff {
			return true
		}
	}
	return false
}

// card is one search-result entry.
type card struct {
	Title    string
	Company  string
	Location string
	Posted   string
	Salary   string
	JobKey   string
	Link     string
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// first returns the text of the first selector that yields non-empty text.
func first(root *goquery.Selection, selectors []string, useTitleAttr bool) string {
	for _, sel := range selectors {
		node := root.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if useTitleAttr {
			if t, ok := node.Attr("title"); ok && strings.TrimSpace(t) != "" {
				return strings.TrimSpace(t)
			}
		}
		if t := text(node); t != "" {
			return t
		}
	}
	return ""
}

// parseCards reads result cards from a search page. The first card
// selector that matches anything wins.
func parseCards(html string, sel Selectors) []card {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var nodes *goquery.Selection
	for _, s := range sel.Cards {
		if found := doc.Find(s); found.Length() > 0 {
			nodes = found
			break
		}
	}
	if nodes == nil {
		return nil
	}

	var cards []card
	nodes.Each(func(_ int, n *goquery.Selection) {
		c := card{
			Title:    first(n, sel.Title, true),
			Company:  first(n, sel.Company, false),
			Location: first(n, sel.Location, false),
			Posted:   first(n, sel.Posted, false),
			JobKey:   jobKey(n),
		}
		if c.Title == "" {
			c.Title = types.NotSpecified
		}
		for _, s := range sel.CardSalary {
			t := text(n.Find(s).First())
			if strings.Contains(t, "$") && !containsAnyWord(t, cardBlacklist) {
				c.Salary = t
				break
			}
		}
		if href, ok := n.Find("h2.jobTitle a, a[href*='jk=']").First().Attr("href"); ok {
			c.Link = href
		}
		cards = append(cards, c)
	})
	return cards
}

func jobKey(n *goquery.Selection) string {
	for _, attr := range []string{"data-jk", "data-key", "id"} {
		if v, ok := n.Attr(attr); ok && v != "" {
			return v
		}
	}
	if v, ok := n.Find("[data-jk]").First().Attr("data-jk"); ok && v != "" {
		return v
	}
	if href, ok := n.Find("h2.jobTitle a, a[href*='jk=']").First().Attr("href"); ok {
		if u, err := url.Parse(href); err == nil {
			return u.Query().Get("jk")
		}
	}
	return ""
}

// detailSalary reads a salary from a posting's detail page.
func detailSalary(doc *goquery.Document, sel Selectors) string {
	for _, s := range sel.DetailSalary {
		var found string
		doc.Find(s).EachWithBreak(func(_ int, n *goquery.Selection) bool {
			t := text(n)
			if t == "" || !strings.Contains(t, "$") {
				return true
			}
			if !containsAnyWord(t, detailPeriod) && !dollarDigits.MatchString(t) {
				return true
			}
			if containsAnyWord(t, detailBlacklist) {
				return true
			}
			found = t
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// isChallengeText reports whether a navigation landed on a block page.
func isChallengeText(html string) bool {
	lower := strings.ToLower(html)
	for _, k := range []string{"captcha", "challenge", "blocked"} {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
