package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/comp-collector/internal/llm"
	"github.com/jonathan/comp-collector/internal/schemas"
)

// Fields are the values read from a query or a follow-up reply. Empty
// strings and nil mean not provided.
type Fields struct {
	JobTitle       string `json:"job_title,omitempty"`
	Location       string `json:"location,omitempty"`
	EducationLevel string `json:"education_level,omitempty"`
	Experience     *int   `json:"years_of_experience,omitempty"`
	Industry       string `json:"industry_type,omitempty"`
	CompanySize    string `json:"company_size_preference,omitempty"`
	Certifications string `json:"certifications,omitempty"`
}

// Missing lists the secondary fields without a value, in question order.
func (f Fields) Missing() []string {
	var out []string
	if f.EducationLevel == "" {
		out = append(out, FieldEducation)
	}
	if f.Experience == nil {
		out = append(out, FieldExperience)
	}
	if f.Industry == "" {
		out = append(out, FieldIndustry)
	}
	if f.CompanySize == "" {
		out = append(out, FieldCompanySize)
	}
	if f.Certifications == "" {
		out = append(out, FieldCertifications)
	}
	return out
}

// merge copies the provided values of other into f.
func (f *Fields) merge(other Fields) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&f.JobTitle, other.JobTitle)
	set(&f.Location, other.Location)
	set(&f.EducationLevel, other.EducationLevel)
	set(&f.Industry, other.Industry)
	set(&f.CompanySize, other.CompanySize)
	set(&f.Certifications, other.Certifications)
	if other.Experience != nil {
		v := *other.Experience
		f.Experience = &v
	}
}

// ExtractionError reports a model response that could not be used.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

type modelFields struct {
	JobTitle       *string `json:"job_title"`
	Location       *string `json:"location"`
	EducationLevel *string `json:"education_level"`
	Experience     any     `json:"years_of_experience"`
	Industry       *string `json:"industry_type"`
	CompanySize    *string `json:"company_size_preference"`
	Certifications *string `json:"certifications"`
}

func (m modelFields) fields() Fields {
	return Fields{
		JobTitle:       clean(m.JobTitle),
		Location:       clean(m.Location),
		EducationLevel: clean(m.EducationLevel),
		Experience:     cleanYears(m.Experience),
		Industry:       clean(m.Industry),
		CompanySize:    clean(m.CompanySize),
		Certifications: clean(m.Certifications),
	}
}

// extractWithModel runs one structured extraction and validates the JSON
// against the named schema before decoding it.
func extractWithModel(ctx context.Context, client llm.Client, schemaName string, schema llm.ExtractionSchema, text string) (Fields, error) {
	resp, err := client.GenerateJSON(ctx, llm.BuildExtractionPrompt(schema, text), llm.TierLite)
	if err != nil {
		return Fields{}, &ExtractionError{Message: "model call failed", Cause: err}
	}
	doc := llm.CleanJSONBlock(resp)
	if err := schemas.Validate(schemaName, []byte(doc)); err != nil {
		return Fields{}, &ExtractionError{Message: "response does not match schema", Cause: err}
	}
	var m modelFields
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return Fields{}, &ExtractionError{Message: "invalid JSON", Cause: err}
	}
	return m.fields(), nil
}

var emptyValues = map[string]bool{"": true, "none": true, "n/a": true, "unknown": true, "not specified": true, "null": true}

func clean(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if emptyValues[strings.ToLower(v)] {
		return ""
	}
	return v
}

var leadingInt = regexp.MustCompile(`\d+`)

func cleanYears(v any) *int {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return nil
		}
		n := int(t)
		return &n
	case string:
		if m := leadingInt.FindString(t); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				return &n
			}
		}
	}
	return nil
}

var (
	fillerPrefixes = []string{"find me ", "find ", "search for ", "show me ", "looking for ", "jobs for ", "salary for ", "salaries for "}
	fillerSuffixes = []string{" jobs", " job", " positions", " position", " roles", " role", " salaries", " salary"}
	titleCaser     = cases.Title(language.English)
)

// HeuristicExtract splits a query into title and location without a model:
// on " in ", else on the last comma, else the whole query is the title and
// the location defaults to the United States.
func HeuristicExtract(query string) Fields {
	query = strings.TrimSpace(query)
	lower := strings.ToLower(query)

	var title, location string
	switch {
	case strings.Contains(lower, " in "):
		i := strings.Index(lower, " in ")
		title, location = query[:i], query[i+len(" in "):]
	case strings.Contains(query, ","):
		i := strings.LastIndex(query, ",")
		title, location = query[:i], query[i+1:]
	default:
		title, location = query, DefaultLocation
	}
	return Fields{
		JobTitle: tidyTitle(title),
		Location: capitalize(strings.Trim(strings.TrimSpace(location), ".?!")),
	}
}

func tidyTitle(title string) string {
	t := strings.TrimSpace(title)
	for _, p := range fillerPrefixes {
		if len(t) > len(p) && strings.EqualFold(t[:len(p)], p) {
			t = t[len(p):]
		}
	}
	for _, s := range fillerSuffixes {
		if len(t) > len(s) && strings.EqualFold(t[len(t)-len(s):], s) {
			t = t[:len(t)-len(s)]
		}
	}
	return capitalize(strings.TrimSpace(t))
}

// capitalize title-cases lowercase words and leaves the rest, so acronyms
// like HVAC survive.
func capitalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == strings.ToLower(w) {
			words[i] = titleCaser.String(w)
		}
	}
	return strings.Join(words, " ")
}

var (
	replyYears     = regexp.MustCompile(`(\d+)\s*\+?\s*(?:years?|yrs?)`)
	replyEducation = []struct {
		pattern *regexp.Regexp
		level   string
	}{
		{regexp.MustCompile(`\bhigh school`), "High School"},
		{regexp.MustCompile(`\bged\b`), "High School"},
		{regexp.MustCompile(`\bcertificate`), "Certificate"},
		{regexp.MustCompile(`\bassociate`), "Associate"},
		{regexp.MustCompile(`\bbachelor`), "Bachelor's"},
		{regexp.MustCompile(`\bmba\b`), "MBA"},
		{regexp.MustCompile(`\bmaster`), "Master's"},
		{regexp.MustCompile(`\bph\.?d\b`), "PhD"},
		{regexp.MustCompile(`\bdoctorate`), "Doctorate"},
	}
	certPattern = regexp.MustCompile(`\b([A-Z]{2,6})\s+[Cc]ertifi(?:ed|cation|cate)`)
)

// HeuristicReply reads secondary fields from a follow-up reply: years of
// experience, education keywords, and catalog industries and sizes.
func HeuristicReply(reply string) Fields {
	lower := strings.ToLower(reply)
	var f Fields

	if m := replyYears.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Experience = &n
		}
	}
	for _, e := range replyEducation {
		if e.pattern.MatchString(lower) {
			f.EducationLevel = e.level
			break
		}
	}
	for _, ind := range industries[1:] {
		if strings.Contains(lower, strings.ToLower(ind)) {
			f.Industry = ind
			break
		}
	}
	for _, size := range companySizes[1:] {
		if strings.Contains(lower, strings.ToLower(size)) {
			f.CompanySize = size
			break
		}
	}
	if m := certPattern.FindStringSubmatch(reply); m != nil {
		f.Certifications = strings.TrimSpace(m[1])
	}
	return f
}

func (f Fields) empty() bool {
	return f == (Fields{})
}
