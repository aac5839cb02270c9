package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	searchErrors "github.com/daleel/api/search/errors"
)

func TestParseQueryRejectsUnknownFacets(t *testing.T) {
	_, err := ParseQuery(json.RawMessage(`{"tsv": "test", "bogusFacet": 1}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, searchErrors.ErrInvalidQuery)
}

func TestParseQueryRejectsLegacyFacets(t *testing.T) {
	legacy := []string{
		`{"createdwithin": "30d"}`,
		`{"updatedwithin": "7d"}`,
		`{"docdatewithin": "1y"}`,
		`{"pubdatewithin": "1y"}`,
		`{"status": "Peer Reviewed"}`,
	}
	for _, raw := range legacy {
		_, err := ParseQuery(json.RawMessage(raw))
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, searchErrors.ErrLegacyQuery, raw)
	}
}

func TestParseQueryFacets(t *testing.T) {
	raw := json.RawMessage(`{
		"tsv": "arbitrary detention",
		"searchTerms": ["open system"],
		"termsExact": true,
		"labels": [1, 2],
		"oplabels": true,
		"childlabels": true,
		"created": ["2024-01-01", "2024-06-30"],
		"dyn": [{"name": "case_number", "op": "contains", "value": "2024-"}]
	}`)

	q, err := ParseQuery(raw)
	require.NoError(t, err)
	assert.Equal(t, "arbitrary detention", q.Tsv)
	assert.Equal(t, []string{"open system"}, q.Terms)
	assert.True(t, q.TermsExact)
	assert.Equal(t, []int64{1, 2}, q.Labels)
	assert.True(t, q.OpLabels)
	assert.True(t, q.ChildLabels)
	require.Len(t, q.Dyn, 1)
	assert.Equal(t, "case_number", q.Dyn[0].Name)
}

func TestParseQueryValidatesDateRanges(t *testing.T) {
	_, err := ParseQuery(json.RawMessage(`{"created": ["not-a-date"]}`))
	require.Error(t, err)

	_, err = ParseQuery(json.RawMessage(`{"edate": ["2024-06-01", "2024-01-01"]}`))
	require.Error(t, err)
	var qerr *searchErrors.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "edate", qerr.Facet)

	// Inverted ranges are only rejected for event dates.
	_, err = ParseQuery(json.RawMessage(`{"edate": ["2024-01-01", "2024-06-01"]}`))
	require.NoError(t, err)
}

func TestParseQueryValidatesDynOps(t *testing.T) {
	_, err := ParseQuery(json.RawMessage(`{"dyn": [{"name": "f", "op": "regex", "value": "x"}]}`))
	require.Error(t, err)

	_, err = ParseQuery(json.RawMessage(`{"dyn": [{"op": "eq", "value": 1}]}`))
	require.Error(t, err)
}

func TestParseEnvelope(t *testing.T) {
	t.Run("list form", func(t *testing.T) {
		queries, err := ParseEnvelope(json.RawMessage(`[{"tsv": "a"}, {"op": "and", "tsv": "b"}]`))
		require.NoError(t, err)
		require.Len(t, queries, 2)
		assert.Equal(t, "a", queries[0].Tsv)
		assert.Equal(t, OpAnd, queries[1].Op)
	})

	t.Run("single object form", func(t *testing.T) {
		queries, err := ParseEnvelope(json.RawMessage(`{"tsv": "a"}`))
		require.NoError(t, err)
		require.Len(t, queries, 1)
	})

	t.Run("empty forms", func(t *testing.T) {
		for _, raw := range []string{"", "null", "[]"} {
			queries, err := ParseEnvelope(json.RawMessage(raw))
			require.NoError(t, err, raw)
			require.Len(t, queries, 1, raw)
			assert.True(t, queries[0].IsEmpty(), raw)
		}
	})

	t.Run("block error names the block", func(t *testing.T) {
		_, err := ParseEnvelope(json.RawMessage(`[{}, {"status": "x"}]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query block 1")
		assert.ErrorIs(t, err, searchErrors.ErrLegacyQuery)
	})
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, (&SearchQuery{}).IsEmpty())
	assert.True(t, (&SearchQuery{Op: OpAnd}).IsEmpty())
	assert.False(t, (&SearchQuery{Tsv: "x"}).IsEmpty())

	// An explicit empty ids restriction is a constraint, not an empty query.
	assert.False(t, (&SearchQuery{IDs: []int64{}}).IsEmpty())

	assert.True(t, EnvelopeIsEmpty([]*SearchQuery{{}, {Op: OpOr}}))
	assert.False(t, EnvelopeIsEmpty([]*SearchQuery{{}, {Tsv: "x"}}))
}

func TestParseDate(t *testing.T) {
	for _, v := range []string{"2024-03-05", "2024-03-05T10:30:00", "2024-03-05T10:30:00Z"} {
		_, err := ParseDate(v)
		assert.NoError(t, err, v)
	}
	_, err := ParseDate("05/03/2024")
	assert.Error(t, err)
}
