package services

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daleel/api/dynamicfields/models"
)

func TestGenerateNameShape(t *testing.T) {
	pattern := regexp.MustCompile(`^field_\d{13}_[0-9a-f]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		name := generateName()
		assert.Regexp(t, pattern, name)
		seen[name] = true
	}
	assert.Greater(t, len(seen), 1, "names should not collide")
}

func TestCheckMaxLengthImmutable(t *testing.T) {
	existing := &models.DynamicField{
		FieldType:    models.TypeText,
		SchemaConfig: json.RawMessage(`{"max_length": 64}`),
	}

	require.NoError(t, checkMaxLengthImmutable(existing, json.RawMessage(`{"max_length": 64, "required": true}`)))
	assert.Error(t, checkMaxLengthImmutable(existing, json.RawMessage(`{"max_length": 128}`)))
	assert.Error(t, checkMaxLengthImmutable(existing, nil))

	unset := &models.DynamicField{FieldType: models.TypeText}
	require.NoError(t, checkMaxLengthImmutable(unset, nil))
	assert.Error(t, checkMaxLengthImmutable(unset, json.RawMessage(`{"max_length": 10}`)))

	number := &models.DynamicField{
		FieldType:    models.TypeNumber,
		SchemaConfig: json.RawMessage(`{"min": 1}`),
	}
	require.NoError(t, checkMaxLengthImmutable(number, json.RawMessage(`{"min": 2}`)))
}
