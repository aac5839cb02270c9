package paginator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
)

func compiled() *compiler.Compiled {
	c := &compiler.Compiled{Table: "bulletins"}
	c.Where("search ILIKE ?", "%detention%")
	return c
}

func TestRequestContracts(t *testing.T) {
	first := Request{PerPage: 30, IncludeCount: true}
	assert.True(t, first.IsFirstPage())
	assert.True(t, first.WantCount())
	assert.Equal(t, 31, first.FetchLimit())

	// A cursor page never produces a total, even when the client asks.
	next := Request{PerPage: 30, IncludeCount: true, Cursor: "500"}
	assert.False(t, next.IsFirstPage())
	assert.False(t, next.WantCount())
}

func TestBuildDataQueryFirstPage(t *testing.T) {
	query, args, err := BuildDataQuery(compiled(), "t.id, t.title", Request{PerPage: 30}, false)
	require.NoError(t, err)

	assert.Equal(t,
		"WITH matches AS (SELECT id FROM bulletins WHERE search ILIKE $1 ORDER BY id DESC) "+
			"SELECT t.id, t.title FROM matches m JOIN bulletins t ON t.id = m.id "+
			"ORDER BY t.id DESC LIMIT $2",
		query,
	)
	assert.Equal(t, []interface{}{"%detention%", 31}, args)
}

func TestBuildDataQueryWithWindowCount(t *testing.T) {
	query, _, err := BuildDataQuery(compiled(), "t.id", Request{PerPage: 30, IncludeCount: true}, true)
	require.NoError(t, err)
	assert.Contains(t, query, ", COUNT(*) OVER () AS total_count")
}

func TestBuildDataQueryCursorPage(t *testing.T) {
	query, args, err := BuildDataQuery(compiled(), "t.id", Request{PerPage: 30, Cursor: "500"}, false)
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE (search ILIKE $1) AND id < $2")
	assert.Equal(t, []interface{}{"%detention%", int64(500), 31}, args)
}

func TestBuildDataQueryEmptyPredicates(t *testing.T) {
	c := &compiler.Compiled{Table: "bulletins"}
	query, args, err := BuildDataQuery(c, "t.id", Request{PerPage: 10}, false)
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE TRUE ORDER BY id DESC")
	assert.Equal(t, []interface{}{11}, args)
}

func TestBuildDataQuerySuppressedWindowCount(t *testing.T) {
	// Simple listings count with a direct COUNT(*) instead, so the caller
	// turns the window count off even when a total was requested.
	c := &compiler.Compiled{Table: "bulletins"}
	dataReq := Request{PerPage: 10}
	query, _, err := BuildDataQuery(c, "t.id", dataReq, dataReq.WantCount())
	require.NoError(t, err)
	assert.NotContains(t, query, "COUNT(*) OVER ()")
}

func TestBuildDataQueryInvalidCursor(t *testing.T) {
	_, _, err := BuildDataQuery(compiled(), "t.id", Request{PerPage: 10, Cursor: "junk"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, searchErrors.ErrInvalidQuery)
}

func TestBuildDataQueryDoesNotMutateCompiled(t *testing.T) {
	c := compiled()
	_, _, err := BuildDataQuery(c, "t.id", Request{PerPage: 10, Cursor: "500"}, false)
	require.NoError(t, err)
	// The compiled args are shared with the count query; the cursor bound
	// must not leak into them.
	assert.Equal(t, []interface{}{"%detention%"}, c.Args)
	assert.Equal(t, []string{"search ILIKE ?"}, c.Conds)
}

func TestBuildCountQuery(t *testing.T) {
	query, args := BuildCountQuery(compiled())
	assert.Equal(t, "SELECT COUNT(*) FROM bulletins WHERE search ILIKE $1", query)
	assert.Equal(t, []interface{}{"%detention%"}, args)
}

func TestBuildResponse(t *testing.T) {
	items := []interface{}{"a", "b", "c"}
	ids := []int64{30, 20, 10}
	total := int64(57)

	resp := BuildResponse(items, ids, Request{PerPage: 2, IncludeCount: true}, &total)
	assert.Equal(t, []interface{}{"a", "b"}, resp.Items)
	require.NotNil(t, resp.NextCursor)
	assert.Equal(t, "20", *resp.NextCursor)
	assert.Equal(t, 2, resp.Meta.CurrentPageSize)
	assert.True(t, resp.Meta.HasMore)
	assert.True(t, resp.Meta.IsFirstPage)
	require.NotNil(t, resp.Total)
	assert.Equal(t, int64(57), *resp.Total)
	assert.Equal(t, "exact", resp.TotalType)
}

func TestFinalize(t *testing.T) {
	ids := func(n int, from int64) []int64 {
		out := make([]int64, n)
		for i := range out {
			out[i] = from - int64(i)
		}
		return out
	}

	t.Run("over-fetched page has more", func(t *testing.T) {
		keep, hasMore, next := Finalize(ids(31, 100), 30)
		assert.Equal(t, 30, keep)
		assert.True(t, hasMore)
		require.NotNil(t, next)
		// Cursor is the id of the last row kept, not the over-fetched row.
		assert.Equal(t, "71", *next)
	})

	t.Run("exact page is the last page", func(t *testing.T) {
		keep, hasMore, next := Finalize(ids(30, 100), 30)
		assert.Equal(t, 30, keep)
		assert.False(t, hasMore)
		assert.Nil(t, next)
	})

	t.Run("short page", func(t *testing.T) {
		keep, hasMore, next := Finalize(ids(4, 10), 30)
		assert.Equal(t, 4, keep)
		assert.False(t, hasMore)
		assert.Nil(t, next)
	})

	t.Run("empty page", func(t *testing.T) {
		keep, hasMore, next := Finalize(nil, 30)
		assert.Equal(t, 0, keep)
		assert.False(t, hasMore)
		assert.Nil(t, next)
	})
}
