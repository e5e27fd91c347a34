package geminiprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertToGenaiSchema_ObjectWithProperties(t *testing.T) {
	raw := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"outcome": map[string]interface{}{"type": "string", "enum": []interface{}{"PASS", "FAIL"}},
		},
		"required": []interface{}{"outcome"},
	}

	schema, err := convertToGenaiSchema(raw)

	require.NoError(t, err)
	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"outcome"}, schema.Required)
	assert.Equal(t, genai.TypeString, schema.Properties["outcome"].Type)
	assert.Equal(t, []string{"PASS", "FAIL"}, schema.Properties["outcome"].Enum)
}

func TestConvertToGenaiSchema_NilForEmptyMap(t *testing.T) {
	schema, err := convertToGenaiSchema(nil)

	require.NoError(t, err)
	assert.Nil(t, schema)
}

func TestConvertToGenaiSchema_ArrayWithItems(t *testing.T) {
	raw := map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "integer"},
	}

	schema, err := convertToGenaiSchema(raw)

	require.NoError(t, err)
	assert.Equal(t, genai.TypeArray, schema.Type)
	assert.Equal(t, genai.TypeInteger, schema.Items.Type)
}
