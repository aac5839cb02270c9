package compiler

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/search/models"
)

func testFields() map[string]FieldDef {
	return map[string]FieldDef{
		"case_number":   {Name: "case_number", FieldType: "text"},
		"casualties":    {Name: "casualties", FieldType: "number"},
		"verified_on":   {Name: "verified_on", FieldType: "datetime"},
		"detention_loc": {Name: "detention_loc", FieldType: "select"},
		"notes":         {Name: "notes", FieldType: "long_text"},
	}
}

func TestDynTextContains(t *testing.T) {
	c := &Compiled{}
	err := compileDynFilters(c, []models.DynFilter{
		{Name: "case_number", Op: models.DynOpContains, Value: "2024-"},
	}, testFields())
	require.NoError(t, err)
	require.Len(t, c.Conds, 1)
	assert.Equal(t, "case_number ILIKE ?", c.Conds[0])
	assert.Equal(t, "%2024-%", c.Args[0])
}

func TestDynNumberEq(t *testing.T) {
	c := &Compiled{}
	// JSON decoding delivers numbers as float64.
	err := compileDynFilters(c, []models.DynFilter{
		{Name: "casualties", Op: models.DynOpEq, Value: float64(12)},
	}, testFields())
	require.NoError(t, err)
	require.Len(t, c.Conds, 1)
	assert.Equal(t, "casualties = ?", c.Conds[0])
	assert.Equal(t, int64(12), c.Args[0])
}

func TestDynDatetimeBetween(t *testing.T) {
	c := &Compiled{}
	err := compileDynFilters(c, []models.DynFilter{
		{Name: "verified_on", Op: models.DynOpBetween, Value: []interface{}{"2024-01-01", "2024-02-01"}},
	}, testFields())
	require.NoError(t, err)
	require.Len(t, c.Conds, 1)
	assert.Equal(t, "verified_on BETWEEN ? AND ?", c.Conds[0])
}

func TestDynSelectOps(t *testing.T) {
	t.Run("eq and all use containment", func(t *testing.T) {
		for _, op := range []string{models.DynOpEq, models.DynOpAll} {
			c := &Compiled{}
			err := compileDynFilters(c, []models.DynFilter{
				{Name: "detention_loc", Op: op, Value: []interface{}{"a", "b"}},
			}, testFields())
			require.NoError(t, err, op)
			require.Len(t, c.Conds, 1, op)
			assert.Equal(t, "detention_loc @> ?", c.Conds[0], op)
			assert.Equal(t, pq.Array([]string{"a", "b"}), c.Args[0], op)
		}
	})

	t.Run("any uses overlap", func(t *testing.T) {
		c := &Compiled{}
		err := compileDynFilters(c, []models.DynFilter{
			{Name: "detention_loc", Op: models.DynOpAny, Value: []interface{}{"a"}},
		}, testFields())
		require.NoError(t, err)
		assert.Equal(t, "detention_loc && ?", c.Conds[0])
	})

	t.Run("contains flattens per value", func(t *testing.T) {
		c := &Compiled{}
		err := compileDynFilters(c, []models.DynFilter{
			{Name: "detention_loc", Op: models.DynOpContains, Value: []interface{}{"a", "b"}},
		}, testFields())
		require.NoError(t, err)
		require.Len(t, c.Conds, 2)
		assert.Equal(t, "array_to_string(detention_loc, ' ') ILIKE ?", c.Conds[0])
	})

	t.Run("empty selection contributes nothing", func(t *testing.T) {
		c := &Compiled{}
		err := compileDynFilters(c, []models.DynFilter{
			{Name: "detention_loc", Op: models.DynOpEq, Value: []interface{}{}},
		}, testFields())
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
	})
}

func TestDynUnknownFieldSkipped(t *testing.T) {
	c := &Compiled{}
	err := compileDynFilters(c, []models.DynFilter{
		{Name: "no_such_field", Op: models.DynOpEq, Value: 1},
		{Name: "casualties", Op: models.DynOpEq, Value: float64(3)},
	}, testFields())
	require.NoError(t, err)
	// The unknown filter is dropped; the known one still compiles.
	require.Len(t, c.Conds, 1)
	assert.Equal(t, "casualties = ?", c.Conds[0])
}

func TestDynUnsupportedOpSkipped(t *testing.T) {
	c := &Compiled{}
	err := compileDynFilters(c, []models.DynFilter{
		{Name: "case_number", Op: models.DynOpBetween, Value: "x"},
	}, testFields())
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestDynIdentifierBarrier(t *testing.T) {
	// A registry entry whose key fails the charset check must hard-fail,
	// never reach SQL text.
	fields := map[string]FieldDef{
		"evil; DROP TABLE bulletins--": {Name: "evil; DROP TABLE bulletins--", FieldType: "text"},
	}
	c := &Compiled{}
	err := compileDynFilters(c, []models.DynFilter{
		{Name: "evil; DROP TABLE bulletins--", Op: models.DynOpContains, Value: "x"},
	}, fields)
	require.Error(t, err)
	assert.ErrorIs(t, err, searchErrors.ErrInvalidQuery)
	assert.True(t, c.IsEmpty())
}

func TestIsSafeIdentifier(t *testing.T) {
	assert.True(t, isSafeIdentifier("field_1700000000000_a3f9c2"))
	assert.True(t, isSafeIdentifier("ABC_123"))
	assert.False(t, isSafeIdentifier(""))
	assert.False(t, isSafeIdentifier("a b"))
	assert.False(t, isSafeIdentifier("a-b"))
	assert.False(t, isSafeIdentifier(`a"b`))
	assert.False(t, isSafeIdentifier("a;b"))
}
