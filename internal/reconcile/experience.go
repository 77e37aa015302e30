package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/comp-collector/internal/types"
)

var (
	yearsRange  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*years?`)
	yearsPlus   = regexp.MustCompile(`(\d+)\+\s*years?`)
	yearsSingle = regexp.MustCompile(`(\d+)\s*years?`)
)

var levelKeywords = []struct {
	level types.ExperienceLevel
	words []string
}{
	{types.Level1, []string{"entry", "junior", "associate", "no experience", "fresh graduate"}},
	{types.Level2, []string{"graduate", "technical school", "epa cert"}},
	{types.Level3, []string{"nate core", "beginner"}},
	{types.Level4, []string{"mid", "intermediate", "nate specialty"}},
	{types.Level5, []string{"senior", "lead", "expert", "principal", "architect"}},
}

// Bucket maps experience text to one of the five levels. Year counts win
// over keywords; text with neither is level 1.
func Bucket(text string) types.ExperienceLevel {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return types.Level1
	}

	if m := yearsRange.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		avg := float64(lo+hi) / 2
		switch {
		case avg == 0:
			return types.Level1
		case avg <= 1.5:
			return types.Level3
		case avg <= 4:
			return types.Level4
		default:
			return types.Level5
		}
	}

	for _, re := range []*regexp.Regexp{yearsPlus, yearsSingle} {
		if m := re.FindStringSubmatch(text); m != nil {
			years, _ := strconv.Atoi(m[1])
			return bucketYears(years)
		}
	}

	for _, k := range levelKeywords {
		for _, w := range k.words {
			if strings.Contains(text, w) {
				return k.level
			}
		}
	}
	return types.Level1
}

func bucketYears(years int) types.ExperienceLevel {
	switch {
	case years == 0:
		return types.Level1
	case years <= 2:
		return types.Level3
	case years <= 5:
		return types.Level4
	default:
		return types.Level5
	}
}
