package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_SkipIntent(t *testing.T) {
	out, err := Render(SkipIntent, map[string]string{"Reply": "just continue"})
	require.NoError(t, err)
	assert.Contains(t, out, `Reply: "just continue"`)
	assert.NotContains(t, out, "{{")
}

func TestRender_FollowUpQuestion(t *testing.T) {
	out, err := Render(FollowUpQuestion, map[string]string{
		"JobTitle": "Nurse",
		"Location": "Boston",
		"Fields":   "years of experience",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"Nurse" in "Boston"`)
	assert.Contains(t, out, "missing details: years of experience.")
}

func TestRender_MissingKey(t *testing.T) {
	_, err := Render(FollowUpQuestion, map[string]string{"JobTitle": "Nurse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "follow-up-question")
}

func TestRender_UnknownPrompt(t *testing.T) {
	_, err := Render("nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined")
}

func TestMustRender_Panics(t *testing.T) {
	assert.Panics(t, func() { MustRender("nope", nil) })
	assert.NotPanics(t, func() {
		MustRender(FollowUpContext, map[string]string{"Fields": "industry", "Reply": "tech"})
	})
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{FollowUpContext, FollowUpQuestion, SkipIntent}, Names())
}
