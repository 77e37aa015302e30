package interpreter

import (
	"strings"
)

// Validation messages.
const (
	MsgEmptyQuery        = "Please enter a valid query with both job title and location"
	MsgGeneralQuestion   = "This appears to be a general question rather than a job search query"
	MsgMultipleLocations = "Multiple locations detected. Please enter only one location at a time"
	MsgMultipleTitles    = "Multiple job titles detected. Please enter only one job title at a time"
	MsgMissingBoth       = "Missing required fields: job title and location"
	MsgMissingTitle      = "Missing required field: job title"
	MsgMissingLocation   = "Missing required field: location"
	MsgInvalidLocation   = "Invalid location format detected"
)

const exampleQuery = "Try: 'Software Engineer in New York'"

var (
	nonJobKeywords = []string{
		"cost of living", "housing cost", "rent", "weather",
		"population", "demographics", "crime rate", "schools", "education",
		"transportation", "culture", "food", "restaurants", "nightlife",
		"tourism", "attractions", "shopping", "entertainment",
	}
	jobKeywords = []string{
		"salary", "pay", "wage", "income", "benefits", "job", "career",
		"position", "role", "employment", "work", "hire", "hiring",
	}
	locationSeparators = []string{" and ", " or ", " & ", ",", ";", " / ", " \\"}
	titleSeparators    = []string{" and ", " or ", " & ", ",", ";", " / "}
)

// Rejection is a failed validation with suggestions for the user.
type Rejection struct {
	Message     string
	Suggestions []string
}

// ValidateStructure checks the raw query before any extraction. It returns
// nil when the query may be a single-title, single-location job search.
func ValidateStructure(query string) *Rejection {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Rejection{
			Message:     MsgEmptyQuery,
			Suggestions: []string{exampleQuery, "Try: 'Marketing Manager in Los Angeles'"},
		}
	}

	lower := strings.ToLower(query)
	if containsAny(lower, nonJobKeywords) && !containsAny(lower, jobKeywords) {
		return &Rejection{
			Message: MsgGeneralQuestion,
			Suggestions: []string{
				"For job searches, try: 'Software Engineer in New York'",
				"Format: '[Job Title] in [Location]'",
				"Example: 'Marketing Manager in Los Angeles'",
			},
		}
	}

	if title, location, ok := strings.Cut(lower, " in "); ok {
		if containsAny(location, locationSeparators) {
			return &Rejection{
				Message:     MsgMultipleLocations,
				Suggestions: []string{exampleQuery + " (single location)", "Submit separate queries for each location"},
			}
		}
		if containsAny(title, titleSeparators) {
			return &Rejection{
				Message:     MsgMultipleTitles,
				Suggestions: []string{exampleQuery + " (single job title)", "Submit separate queries for each job role"},
			}
		}
	}
	return nil
}

// GuardTitle drops an extracted title that does not come from the query.
// Multi-word titles need at least half their words in the query; one-word
// titles need that word.
func GuardTitle(query, title string) string {
	words := strings.Fields(strings.ToLower(title))
	if len(words) == 0 {
		return ""
	}
	lower := strings.ToLower(query)
	matched := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			matched++
		}
	}
	if len(words) == 1 && matched == 0 {
		return ""
	}
	if len(words) > 1 && float64(matched) < float64(len(words))/2 {
		return ""
	}
	return title
}

// MissingRequired reports a missing job title or location.
func MissingRequired(title, location string) *Rejection {
	format := "Format: '[Job Title] in [Location]'"
	switch {
	case title == "" && location == "":
		return &Rejection{
			Message:     MsgMissingBoth,
			Suggestions: []string{exampleQuery, "Try: 'Marketing Manager in Los Angeles'", format},
		}
	case title == "":
		return &Rejection{
			Message:     MsgMissingTitle,
			Suggestions: []string{"Please specify the job title you're looking for", exampleQuery, format},
		}
	case location == "":
		return &Rejection{
			Message:     MsgMissingLocation,
			Suggestions: []string{"Please specify the location where you want to work", exampleQuery, format},
		}
	}
	return nil
}

// CheckLocation rejects locations that are lists or descriptions rather
// than one place.
func CheckLocation(location string) *Rejection {
	lower := strings.ToLower(location)
	if len(location) <= 50 && !strings.Contains(lower, "various") && !strings.Contains(lower, "including") {
		return nil
	}
	return &Rejection{
		Message:     MsgInvalidLocation,
		Suggestions: []string{"Please specify a single, specific location", "Try: 'Software Engineer in Seattle'"},
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
