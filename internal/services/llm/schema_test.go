package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolProp() map[string]any {
	return map[string]any{"type": "boolean"}
}

func TestSchemaValidate(t *testing.T) {
	schema, err := NewSchema("flags", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rain": boolProp(),
			"snow": boolProp(),
		},
		"additionalProperties": false,
	}, false)
	require.NoError(t, err)

	assert.NoError(t, schema.Validate([]byte(`{"rain": true}`)))
	assert.NoError(t, schema.Validate([]byte(`{}`)))

	assert.Error(t, schema.Validate([]byte(`{"rain": "yes"}`)), "wrong type")
	assert.Error(t, schema.Validate([]byte(`{"hail": true}`)), "unknown property")
	assert.Error(t, schema.Validate([]byte(`not json`)))
}

func TestEnsureStrict(t *testing.T) {
	schema := EnsureStrict(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_weather_query": boolProp(),
			"confidence":       map[string]any{"type": "number"},
		},
	})

	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"confidence", "is_weather_query"}, schema["required"], "required list is sorted")
}

func TestEnsureStrictNested(t *testing.T) {
	schema := EnsureStrict(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
				},
			},
		},
	})

	inner := schema["properties"].(map[string]any)["items"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, false, inner["additionalProperties"])
	assert.ElementsMatch(t, []string{"name"}, inner["required"])
}

func TestEnsureStrictNil(t *testing.T) {
	assert.Nil(t, EnsureStrict(nil))
}

func TestMustSchemaPanicsOnBadDefinition(t *testing.T) {
	assert.Panics(t, func() {
		MustSchema("broken", map[string]any{"type": 12}, false)
	})
}
