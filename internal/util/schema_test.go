package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planArgs struct {
	UserGoals    string   `json:"user_goals" description:"The user's fitness goals"`
	FitnessLevel string   `json:"fitness_level" default:"intermediate"`
	Preferences  string   `json:"preferences,omitempty"`
	Days         int      `json:"days,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Ignored      string   `json:"-"`
	internal     string
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(planArgs{})

	props := schema["properties"].(map[string]any)
	require.Len(t, props, 5)

	goals := props["user_goals"].(map[string]any)
	assert.Equal(t, "string", goals["type"])
	assert.Equal(t, "The user's fitness goals", goals["description"])

	level := props["fitness_level"].(map[string]any)
	assert.Equal(t, "intermediate", level["default"])

	assert.Equal(t, "integer", props["days"].(map[string]any)["type"])
	assert.Equal(t, map[string]any{"type": "string"}, props["tags"].(map[string]any)["items"])

	assert.Equal(t, []string{"user_goals"}, schema["required"])
}

func TestCreateSchemaNonStruct(t *testing.T) {
	schema := CreateSchema("nope")
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(&planArgs{})

	require.NoError(t, ValidateParameters(map[string]any{"user_goals": "Build muscle", "days": float64(3)}, schema))

	err := ValidateParameters(map[string]any{"fitness_level": "advanced"}, schema)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "user_goals", ve.Field)

	err = ValidateParameters(map[string]any{"user_goals": 5}, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected type string")

	err = ValidateParameters(map[string]any{"user_goals": "x", "days": 2.5}, schema)
	require.Error(t, err)

	decoded := map[string]any{"required": []any{"a"}, "properties": map[string]any{}}
	require.Error(t, ValidateParameters(map[string]any{}, decoded))
}

func TestApplyDefaults(t *testing.T) {
	schema := CreateSchema(planArgs{})
	params := ApplyDefaults(map[string]any{"user_goals": "x"}, schema)
	assert.Equal(t, "intermediate", params["fitness_level"])

	params = ApplyDefaults(map[string]any{"fitness_level": "advanced"}, schema)
	assert.Equal(t, "advanced", params["fitness_level"])

	assert.Equal(t, "intermediate", ApplyDefaults(nil, schema)["fitness_level"])
}
