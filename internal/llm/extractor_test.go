package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := BuildExtractionPrompt(SearchQuerySchema(), "Nurse in Boston")

	assert.True(t, strings.HasPrefix(prompt, "Extract job search parameters"))
	assert.Contains(t, prompt, `"job_title": "string" | null (required) // Job title exactly as the user wrote it,`)
	assert.Contains(t, prompt, `"years_of_experience": number | null // Years of experience if mentioned,`)
	assert.Contains(t, prompt, `"certifications": "string" | null // Certifications if mentioned`+"\n}")
	assert.Contains(t, prompt, "- Use null for anything the text does not state.\n")
	assert.True(t, strings.HasSuffix(prompt, "\"\"\"\nNurse in Boston\n\"\"\"\n"))
}

func TestFollowUpSchema_NoRequiredFields(t *testing.T) {
	fields := FollowUpSchema().Fields
	assert.Len(t, fields, 5)
	for _, f := range fields {
		assert.False(t, f.Required, f.Name)
	}
}

func TestSearchQuerySchema_SharesPreferences(t *testing.T) {
	search := SearchQuerySchema().Fields
	assert.Len(t, search, 7)
	assert.Equal(t, FollowUpSchema().Fields, search[2:])
}
