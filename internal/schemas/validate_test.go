package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SearchQuery(t *testing.T) {
	err := Validate(SearchQuery, []byte(`{"job_title": "Nurse", "location": "Boston", "years_of_experience": 3}`))
	assert.NoError(t, err)

	err = Validate(SearchQuery, []byte(`{"job_title": null, "location": null}`))
	assert.NoError(t, err)
}

func TestValidate_SearchQuery_MissingField(t *testing.T) {
	err := Validate(SearchQuery, []byte(`{"job_title": "Nurse"}`))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.NotEmpty(t, validationErr.Errors)
	assert.Contains(t, err.Error(), "location")
}

func TestValidate_WrongType(t *testing.T) {
	err := Validate(FollowUp, []byte(`{"education_level": 12}`))
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "education_level", validationErr.Errors[0].Field)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "nope", loadErr.Name)
}

func TestValidate_NotJSON(t *testing.T) {
	assert.Error(t, Validate(FollowUp, []byte(`not json`)))
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["a"]}`
	assert.NoError(t, ValidateJSONString(schema, `{"a": 1}`))
	assert.Error(t, ValidateJSONString(schema, `{}`))
}
