package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json code block", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"generic code block", "```\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"plain JSON", `{"key": "value"}`, `{"key": "value"}`},
		{"preamble", "Here is the JSON:\n{\"job_title\": \"Nurse\"}", `{"job_title": "Nurse"}`},
		{"trailing text", "{\"key\": \"value\"}\n\nAnything else?", `{"key": "value"}`},
		{"array", "Items:\n[\"a\", \"b\"]", `["a", "b"]`},
		{"escaped quotes", `Result: {"m": "He said \"hi {x}\""}`, `{"m": "He said \"hi {x}\""}`},
		{"no json", "yes", "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractJSONObject(`{"a": {"b": 1}} tail`))
	assert.Equal(t, `[[1, 2], [3]]`, extractJSONArray(`[[1, 2], [3]] tail`))
	assert.Equal(t, "", extractJSONObject("not json"))
	assert.Equal(t, "", extractJSONObject(`{"unterminated": 1`))
	assert.Equal(t, "", extractJSONArray(""))
}
