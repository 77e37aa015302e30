package llm

import (
	"fmt"
	"strings"
)

// FieldKind is the JSON type a schema field is expected to hold.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
)

func (k FieldKind) hint() string {
	if k == KindNumber {
		return "number | null"
	}
	return `"string" | null`
}

// SchemaField is one key of an extraction result.
type SchemaField struct {
	Name        string
	Kind        FieldKind
	Description string
	Required    bool
}

// ExtractionSchema describes the object a model should pull out of free text.
type ExtractionSchema struct {
	Name   string
	Task   string
	Fields []SchemaField
}

var extractionRules = []string{
	"Take values only from the text; never invent them.",
	"Use null for anything the text does not state.",
	"Reply with the JSON object alone: no markdown, no commentary.",
}

// BuildExtractionPrompt renders schema and the user's text as one prompt.
func BuildExtractionPrompt(schema ExtractionSchema, input string) string {
	var sb strings.Builder
	sb.WriteString(schema.Task)
	sb.WriteString("\n\nReturn ONLY valid JSON matching this exact structure:\n{\n")
	for i, f := range schema.Fields {
		fmt.Fprintf(&sb, "  %q: %s", f.Name, f.Kind.hint())
		if f.Required {
			sb.WriteString(" (required)")
		}
		if f.Description != "" {
			sb.WriteString(" // " + f.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("}\n\nRules:\n")
	for _, rule := range extractionRules {
		sb.WriteString("- " + rule + "\n")
	}
	fmt.Fprintf(&sb, "\nText:\n\"\"\"\n%s\n\"\"\"\n", input)
	return sb.String()
}

// preferenceFields are the optional refinements shared by both schemas.
func preferenceFields() []SchemaField {
	return []SchemaField{
		{Name: "education_level", Description: "Education level if mentioned (e.g. Bachelor's, Master's)"},
		{Name: "years_of_experience", Kind: KindNumber, Description: "Years of experience if mentioned"},
		{Name: "industry_type", Description: "Industry if mentioned"},
		{Name: "company_size_preference", Description: "Company size if mentioned (e.g. 50-100 FTEs)"},
		{Name: "certifications", Description: "Certifications if mentioned"},
	}
}

// SearchQuerySchema extracts search parameters from a free-text request.
func SearchQuerySchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "SearchQuery",
		Task: "Extract job search parameters from the user's message. " +
			"The job title must come from the user's words; never guess one that is not mentioned. " +
			"The location must be a single city, state, or region.",
		Fields: append([]SchemaField{
			{Name: "job_title", Description: "Job title exactly as the user wrote it", Required: true},
			{Name: "location", Description: "One location", Required: true},
		}, preferenceFields()...),
	}
}

// FollowUpSchema extracts optional preferences from a clarification reply.
func FollowUpSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:   "FollowUp",
		Task:   "Extract optional job search preferences from the user's reply to a follow-up question.",
		Fields: preferenceFields(),
	}
}
