package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validField() *DynamicField {
	return &DynamicField{
		Title:      "Case number",
		EntityType: "bulletin",
		FieldType:  TypeText,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validField().Validate())

	f := validField()
	f.Title = ""
	assert.Error(t, f.Validate())

	f = validField()
	f.FieldType = "geo"
	assert.Error(t, f.Validate())

	f = validField()
	f.EntityType = "report"
	assert.Error(t, f.Validate())
}

func TestValidateSelectOptions(t *testing.T) {
	f := validField()
	f.FieldType = TypeSelect
	assert.Error(t, f.Validate(), "select without options")

	f.Options = Options{{ID: 1, Label: "open"}, {ID: 2, Label: "closed"}}
	require.NoError(t, f.Validate())

	f.Options = Options{{ID: 1, Label: "open"}, {ID: 1, Label: "closed"}}
	assert.Error(t, f.Validate(), "duplicate option ids")

	f.Options = Options{{ID: 1, Label: ""}}
	assert.Error(t, f.Validate(), "option without label")

	text := validField()
	text.Options = Options{{ID: 1, Label: "open"}}
	assert.Error(t, text.Validate(), "options on a non-select field")
}

func TestValidateSchemaConfig(t *testing.T) {
	f := validField()
	f.SchemaConfig = json.RawMessage(`{"max_length": 64}`)
	require.NoError(t, f.Validate())

	f.SchemaConfig = json.RawMessage(`{"max_length": 0}`)
	assert.Error(t, f.Validate())

	num := validField()
	num.FieldType = TypeNumber
	num.SchemaConfig = json.RawMessage(`{"min": 10, "max": 5}`)
	assert.Error(t, num.Validate())

	num.SchemaConfig = json.RawMessage(`{"min": 1, "max": 10}`)
	require.NoError(t, num.Validate())

	num.SchemaConfig = json.RawMessage(`{"max_length": 5}`)
	assert.Error(t, num.Validate(), "max_length on a number field")
}

func TestAssignOptionIDsKeepsExisting(t *testing.T) {
	f := &DynamicField{
		FieldType: TypeSelect,
		Options:   Options{{ID: 3, Label: "a"}, {ID: 0, Label: "b"}, {ID: 0, Label: "c"}},
	}
	f.AssignOptionIDs()

	assert.Equal(t, int64(3), f.Options[0].ID)
	assert.Equal(t, int64(4), f.Options[1].ID)
	assert.Equal(t, int64(5), f.Options[2].ID)
}

func TestColumnType(t *testing.T) {
	cases := map[string]string{
		TypeText:     "text",
		TypeLongText: "text",
		TypeNumber:   "bigint",
		TypeDatetime: "timestamptz",
		TypeSelect:   "text[]",
	}
	for fieldType, want := range cases {
		f := &DynamicField{FieldType: fieldType}
		assert.Equal(t, want, f.ColumnType())
	}
}
