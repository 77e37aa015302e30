package jobindex

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// normalize lowercases, maps punctuation to spaces, and collapses runs of
// whitespace.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// ratio is a normalized edit-distance similarity in [0, 100].
func ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(max(la, lb)))
}

// partialRatio scores the shorter string against its best-aligned window
// of the longer one.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	best := 0.0
	short := string(ra)
	for i := 0; i+len(ra) <= len(rb); i++ {
		if r := ratio(short, string(rb[i:i+len(ra)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func sortedTokens(s string) []string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return tokens
}

func tokenSortRatio(a, b string) float64 {
	return ratio(strings.Join(sortedTokens(a), " "), strings.Join(sortedTokens(b), " "))
}

// tokenSetRatio compares the shared tokens against each side's remainder.
func tokenSetRatio(a, b string) float64 {
	setA := map[string]bool{}
	for _, t := range strings.Fields(a) {
		setA[t] = true
	}
	setB := map[string]bool{}
	for _, t := range strings.Fields(b) {
		setB[t] = true
	}
	var common, onlyA, onlyB []string
	for t := range setA {
		if setB[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	if len(common) == 0 {
		return 0
	}
	if len(onlyA) == 0 || len(onlyB) == 0 {
		return 100
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	sect := strings.Join(common, " ")
	combA := sect + " " + strings.Join(onlyA, " ")
	combB := sect + " " + strings.Join(onlyB, " ")
	return math.Max(ratio(sect, combA), math.Max(ratio(sect, combB), ratio(combA, combB)))
}

// Score is a weighted similarity in [0, 100] that takes the best of plain,
// token-order-insensitive and partial comparisons. Identical titles (ignoring
// case and punctuation) always score 100.
func Score(query, candidate string) int {
	a, b := normalize(query), normalize(candidate)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	la, lb := float64(len([]rune(a))), float64(len([]rune(b)))
	lenRatio := math.Max(la, lb) / math.Min(la, lb)
	tokenScore := math.Max(tokenSortRatio(a, b), tokenSetRatio(a, b))

	best := ratio(a, b)
	if lenRatio < 1.5 {
		best = math.Max(best, tokenScore*0.95)
	} else {
		partialScale := 0.9
		if lenRatio >= 8 {
			partialScale = 0.6
		}
		best = math.Max(best, partialRatio(a, b)*partialScale)
		best = math.Max(best, tokenScore*0.95*partialScale)
	}
	score := int(math.Round(best))
	// Only an exact match may score 100.
	if score >= 100 {
		score = 99
	}
	return score
}
