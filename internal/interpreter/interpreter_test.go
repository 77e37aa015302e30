package interpreter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/comp-collector/internal/llm"
)

func promptContaining(s string) any {
	return mock.MatchedBy(func(p string) bool { return strings.Contains(p, s) })
}

func TestInterpret_InvalidQueries(t *testing.T) {
	in := New(nil)
	ctx := context.Background()

	out := in.Interpret(ctx, "", "tell me about the weather in Phoenix")
	assert.Equal(t, KindInvalid, out.Kind)
	assert.Equal(t, MsgGeneralQuestion, out.Message)

	out = in.Interpret(ctx, "", "Nurse in Denver and Boston")
	assert.Equal(t, KindInvalid, out.Kind)
	assert.Equal(t, MsgMultipleLocations, out.Message)

	out = in.Interpret(ctx, "", "")
	assert.Equal(t, MsgEmptyQuery, out.Message)
	assert.Equal(t, 0, in.Sessions().Len())
}

func TestInterpret_MissingBothFromModel(t *testing.T) {
	client := new(mockLLM)
	client.On("GenerateJSON", mock.Anything, mock.Anything, llm.TierLite).
		Return(`{"job_title": null, "location": null}`, nil)

	out := New(client).Interpret(context.Background(), "", "I want a better job")
	assert.Equal(t, KindInvalid, out.Kind)
	assert.Equal(t, MsgMissingBoth, out.Message)
	assert.NotEmpty(t, out.Suggestions)
}

func TestInterpret_HallucinatedTitleDropped(t *testing.T) {
	client := new(mockLLM)
	client.On("GenerateJSON", mock.Anything, mock.Anything, llm.TierLite).
		Return(`{"job_title": "Registered Nurse", "location": "Boston"}`, nil)

	out := New(client).Interpret(context.Background(), "", "jobs in Boston")
	assert.Equal(t, KindInvalid, out.Kind)
	assert.Equal(t, MsgMissingTitle, out.Message)
}

func TestInterpret_ClarificationRoundTrip(t *testing.T) {
	in := New(nil)
	ctx := context.Background()

	out := in.Interpret(ctx, "s1", "Software Engineer in Seattle")
	require.Equal(t, KindNeedsClarification, out.Kind)
	assert.Equal(t, "s1", out.SessionID)
	assert.Equal(t, SecondaryFields, out.MissingFields)
	assert.Equal(t, "Could you please share your educational background, years of experience, industry preference, and company size preference? "+SkipHint, out.Question)

	out = in.FollowUp(ctx, "s1", "Bachelor's, 3 years, Information Technology")
	require.Equal(t, KindComplete, out.Kind)
	assert.Equal(t, MsgProcessed, out.Message)
	req := out.Request
	require.NotNil(t, req)
	assert.Equal(t, "Software Engineer", req.JobTitle)
	assert.Equal(t, "Seattle", req.Location)
	assert.Equal(t, "Bachelor's", req.EducationLevel)
	require.NotNil(t, req.ExperienceYears)
	assert.Equal(t, 3, *req.ExperienceYears)
	assert.Equal(t, "Information Technology", req.Industry)
	assert.Equal(t, DefaultCompanySize, req.CompanySize)
	assert.Equal(t, DefaultCertifications, req.Certifications)

	// One clarification round only.
	out = in.FollowUp(ctx, "s1", "also 5 years")
	assert.Equal(t, KindInvalid, out.Kind)
	assert.Equal(t, MsgNoPendingTurn, out.Message)
}

func TestInterpret_SkipThroughInterpret(t *testing.T) {
	in := New(nil)
	ctx := context.Background()

	out := in.Interpret(ctx, "s2", "Line Cook in Portland")
	require.Equal(t, KindNeedsClarification, out.Kind)

	out = in.Interpret(ctx, "s2", "skip")
	require.Equal(t, KindComplete, out.Kind)
	assert.Equal(t, MsgSkipped, out.Message)
	assert.Equal(t, DefaultIndustry, out.Request.Industry)
	assert.Nil(t, out.Request.ExperienceYears)

	in.Release("s2")
	assert.Equal(t, 0, in.Sessions().Len())
}

func TestInterpret_CompleteOnFirstPass(t *testing.T) {
	client := new(mockLLM)
	client.On("GenerateJSON", mock.Anything, mock.Anything, llm.TierLite).Return(`{
		"job_title": "Nurse", "location": "Boston", "education_level": "Master's",
		"years_of_experience": 6, "industry_type": "Healthcare",
		"company_size_preference": "200-500 FTEs", "certifications": "RN"}`, nil)

	out := New(client).Interpret(context.Background(), "", "Nurse in Boston")
	require.Equal(t, KindComplete, out.Kind)
	assert.Equal(t, MsgReady, out.Message)
	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, "RN", out.Request.Certifications)
	assert.Equal(t, 6, *out.Request.ExperienceYears)
	client.AssertExpectations(t)
}

func TestInterpret_ModelFailureFallsBack(t *testing.T) {
	client := new(mockLLM)
	client.On("GenerateJSON", mock.Anything, mock.Anything, llm.TierLite).Return("", errors.New("unavailable"))
	client.On("GenerateContent", mock.Anything, promptContaining("Write ONE short"), llm.TierLite).
		Return("What is your education and experience?", nil)

	out := New(client).Interpret(context.Background(), "", "welder in tulsa")
	require.Equal(t, KindNeedsClarification, out.Kind)
	assert.Equal(t, "What is your education and experience? "+SkipHint, out.Question)
	client.AssertExpectations(t)
}

func TestFollowUp_ModelSkipIntent(t *testing.T) {
	client := new(mockLLM)
	client.On("GenerateJSON", mock.Anything, promptContaining("welder"), llm.TierLite).
		Return(`{"job_title": "Welder", "location": "Tulsa"}`, nil)
	client.On("GenerateContent", mock.Anything, promptContaining("Write ONE short"), llm.TierLite).Return("", errors.New("down"))
	client.On("GenerateContent", mock.Anything, promptContaining("just go ahead"), llm.TierLite).Return("Yes", nil)

	in := New(client)
	out := in.Interpret(context.Background(), "w", "welder in Tulsa")
	require.Equal(t, KindNeedsClarification, out.Kind)
	assert.True(t, strings.HasPrefix(out.Question, "Could you please share your"))

	out = in.FollowUp(context.Background(), "w", "just go ahead")
	require.Equal(t, KindComplete, out.Kind)
	assert.Equal(t, MsgSkipped, out.Message)
}

func TestFollowUp_KeywordNeedsNoDetails(t *testing.T) {
	in := New(nil)
	ctx := context.Background()
	in.Interpret(ctx, "k", "Electrician in Denver")

	out := in.FollowUp(ctx, "k", "no certifications, 4 years")
	require.Equal(t, KindComplete, out.Kind)
	assert.Equal(t, MsgProcessed, out.Message)
	assert.Equal(t, 4, *out.Request.ExperienceYears)
}

func TestQuestionFor(t *testing.T) {
	assert.Equal(t, "Could you please share your certifications? "+SkipHint, QuestionFor([]string{FieldCertifications}))
	assert.Equal(t, "Could you please share your industry preference and certifications? "+SkipHint,
		QuestionFor([]string{FieldIndustry, FieldCertifications}))
	assert.Equal(t, "Could you please share your educational background, years of experience, and certifications? "+SkipHint,
		QuestionFor([]string{FieldEducation, FieldExperience, FieldCertifications}))
}
