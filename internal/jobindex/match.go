package jobindex

import (
	"sort"
	"strings"
)

// Matching thresholds.
const (
	MinScore            = 60
	MinCrossDomainScore = 85
	DomainPreference    = 15
	AlternativeMinScore = 40
	MaxAlternatives     = 5
	maxVariants         = 10
	candidatesPerQuery  = 10
	strongKeywordCount  = 3
)

// Scored is an entry with its similarity score.
type Scored struct {
	Entry Entry
	Score int
}

// Match is the outcome of resolving a free-text title.
type Match struct {
	Entry   Entry
	Score   int
	Variant string
	// Strong is set when the entry was chosen by domain keyword density.
	Strong bool
	Domain string
}

// Matcher resolves free-text titles to canonical entries.
type Matcher struct {
	tables *Tables
}

// NewMatcher returns a matcher using the given tables (DefaultTables when nil).
func NewMatcher(tables *Tables) *Matcher {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Matcher{tables: tables}
}

// Variants expands a query through abbreviations, superset titles, synonyms,
// and domain suffixes. The lowercased query is always first; at most ten
// variants are returned.
func (m *Matcher) Variants(query string, titles []string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	variants := []string{q}
	seen := map[string]bool{q: true}
	add := func(v string) {
		v = strings.Join(strings.Fields(strings.ToLower(v)), " ")
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	for i, a := range m.tables.Abbreviations {
		re := m.tables.abbrevPatterns[i]
		if !re.MatchString(q) {
			continue
		}
		for _, exp := range a.Expansions {
			add(re.ReplaceAllLiteralString(q, exp))
		}
	}

	queryWords := strings.Fields(q)
	for _, title := range titles {
		titleWords := strings.Fields(strings.ToLower(title))
		if len(titleWords) > len(queryWords) && containsAll(titleWords, queryWords) {
			add(title)
		}
	}

	for i, syn := range m.tables.Synonyms {
		re := m.tables.synonymPatterns[i]
		if !re.MatchString(q) {
			continue
		}
		for _, long := range syn.Long {
			add(re.ReplaceAllLiteralString(q, long))
		}
	}

	for _, rule := range m.tables.Suffixes {
		if !containsAny(q, rule.Triggers) {
			continue
		}
		for _, s := range rule.Append {
			add(q + " " + s)
		}
		for _, p := range rule.Prepend {
			add(p + " " + q)
		}
	}

	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}
	return variants
}

// DetectDomain returns the first domain with a keyword in the query.
func (m *Matcher) DetectDomain(query string) string {
	q := strings.ToLower(query)
	for _, d := range m.tables.Domains {
		if containsAny(q, d.Keywords) {
			return d.Name
		}
	}
	return ""
}

// Rank scores every entry against the query and returns the top n.
func Rank(entries []Entry, query string, n int) []Scored {
	scored := make([]Scored, len(entries))
	for i, e := range entries {
		scored[i] = Scored{Entry: e, Score: Score(query, e.Title)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// Best resolves query against entries. It returns false when nothing clears
// the threshold: 60 normally, 85 when the winner lies outside the query's
// detected domain.
func (m *Matcher) Best(entries []Entry, query string) (Match, bool) {
	if len(entries) == 0 || strings.TrimSpace(query) == "" {
		return Match{}, false
	}

	domainName := m.DetectDomain(query)
	domain, hasDomain := m.tables.domain(domainName)

	for _, e := range entries {
		if Score(query, e.Title) == 100 {
			return Match{Entry: e, Score: 100, Variant: strings.ToLower(query), Domain: domainName}, true
		}
	}

	if hasDomain {
		for _, e := range entries {
			if countKeywords(strings.ToLower(e.Title), domain.Keywords) >= strongKeywordCount {
				return Match{Entry: e, Score: Score(query, e.Title), Variant: strings.ToLower(query), Strong: true, Domain: domainName}, true
			}
		}
	}

	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Title
	}

	var best Match
	found := false
	for _, variant := range m.Variants(query, titles) {
		ranked := Rank(entries, variant, candidatesPerQuery)
		if len(ranked) == 0 {
			continue
		}
		candidate := ranked[0]
		if hasDomain {
			candidate = preferDomain(ranked, domain)
		}
		if !found || candidate.Score > best.Score {
			best = Match{Entry: candidate.Entry, Score: candidate.Score, Variant: variant, Domain: domainName}
			found = true
		}
	}
	if !found {
		return Match{}, false
	}

	threshold := MinScore
	if hasDomain && !containsAny(strings.ToLower(best.Entry.Title), domain.Keywords) {
		threshold = MinCrossDomainScore
	}
	if best.Score < threshold {
		return Match{}, false
	}
	return best, true
}

// preferDomain picks the best in-domain candidate unless an out-of-domain
// one beats it by more than DomainPreference points.
func preferDomain(ranked []Scored, domain Domain) Scored {
	var bestDomain, bestOther *Scored
	for i := range ranked {
		inDomain := containsAny(strings.ToLower(ranked[i].Entry.Title), domain.Keywords)
		if inDomain && bestDomain == nil {
			bestDomain = &ranked[i]
		}
		if !inDomain && bestOther == nil {
			bestOther = &ranked[i]
		}
	}
	switch {
	case bestDomain == nil:
		return ranked[0]
	case bestOther != nil && bestOther.Score > bestDomain.Score+DomainPreference:
		return *bestOther
	default:
		return *bestDomain
	}
}

// Alternatives returns up to five entries scoring above 40.
func Alternatives(entries []Entry, query string) []Scored {
	var out []Scored
	for _, s := range Rank(entries, query, MaxAlternatives) {
		if s.Score > AlternativeMinScore {
			out = append(out, s)
		}
	}
	return out
}

func containsAll(haystack, needles []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, h := range haystack {
		set[h] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if hasKeyword(s, w) {
			return true
		}
	}
	return false
}

func countKeywords(s string, words []string) int {
	n := 0
	for _, w := range words {
		if hasKeyword(s, w) {
			n++
		}
	}
	return n
}

// hasKeyword reports whether kw occurs in s as whole words, allowing a
// plural "s" or "es" suffix: "nurse" matches "nurses" but "car" does not
// match "care".
func hasKeyword(s, kw string) bool {
	if kw == "" {
		return false
	}
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)
		if start == 0 || !isWordByte(s[start-1]) {
			rest := s[end:]
			switch {
			case rest == "" || !isWordByte(rest[0]):
				return true
			case strings.HasPrefix(rest, "es") && (len(rest) == 2 || !isWordByte(rest[2])):
				return true
			case rest[0] == 's' && (len(rest) == 1 || !isWordByte(rest[1])):
				return true
			}
		}
		from = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
