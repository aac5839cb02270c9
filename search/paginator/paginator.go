// Package paginator assembles and finalises the two pagination contracts:
// first-page-with-count and cursor-only. Ordering is strictly id DESC and
// every data query over-fetches by one row to compute hasMore without a
// second round trip.
package paginator

import (
	"fmt"

	"github.com/daleel/api/search/compiler"
	"github.com/daleel/api/search/models"
)

// Request is the pagination contract selection for one search call.
type Request struct {
	Cursor       string
	PerPage      int
	IncludeCount bool
}

// IsFirstPage reports whether no cursor was supplied.
func (r Request) IsFirstPage() bool {
	return r.Cursor == ""
}

// WantCount reports whether this call must produce an exact total. Totals
// are only computed on the first page; cursor pages return hasMore alone.
func (r Request) WantCount() bool {
	return r.IncludeCount && r.Cursor == ""
}

// FetchLimit is the over-fetch row limit for the data query.
func (r Request) FetchLimit() int {
	return r.PerPage + 1
}

// BuildDataQuery renders the data statement for the compiled predicate set.
// The predicates live in a CTE of matching ids ordered id DESC, joined back
// to the entity table for projection; this isolates predicate cost from
// projection cost and gives cursor paging a stable ordering. projection is
// the SELECT list over alias t. withWindowCount additionally projects
// COUNT(*) OVER () AS total_count, computed before LIMIT applies.
func BuildDataQuery(c *compiler.Compiled, projection string, req Request, withWindowCount bool) (string, []interface{}, error) {
	cursorID, err := models.DecodeCursor(req.Cursor)
	if err != nil {
		return "", nil, err
	}

	where := c.WhereClause()
	args := make([]interface{}, len(c.Args))
	copy(args, c.Args)
	if cursorID > 0 {
		where = "(" + where + ") AND id < ?"
		args = append(args, cursorID)
	}

	countCol := ""
	if withWindowCount {
		countCol = ", COUNT(*) OVER () AS total_count"
	}

	query := fmt.Sprintf(
		"WITH matches AS (SELECT id FROM %s WHERE %s ORDER BY id DESC) "+
			"SELECT %s%s FROM matches m JOIN %s t ON t.id = m.id "+
			"ORDER BY t.id DESC LIMIT ?",
		c.Table, where, projection, countCol, c.Table,
	)
	args = append(args, req.FetchLimit())

	return compiler.Rebind(query), args, nil
}

// BuildCountQuery renders the direct COUNT statement used on the
// simple-listing fast path, where a predicate-less COUNT(*) against the
// table is far cheaper than a window count.
func BuildCountQuery(c *compiler.Compiled) (string, []interface{}) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", c.Table, c.WhereClause())
	return compiler.Rebind(query), c.Args
}

// BuildResponse truncates the over-fetched item list to the page boundary
// and assembles the response envelope. ids must parallel items.
func BuildResponse(items []interface{}, ids []int64, req Request, total *int64) models.SearchResponse {
	keep, hasMore, nextCursor := Finalize(ids, req.PerPage)
	resp := models.SearchResponse{
		Items:      items[:keep],
		NextCursor: nextCursor,
		Meta: models.Meta{
			CurrentPageSize: keep,
			HasMore:         hasMore,
			IsFirstPage:     req.IsFirstPage(),
		},
	}
	if total != nil {
		resp.Total = total
		resp.TotalType = models.TotalTypeExact
	}
	return resp
}

// Finalize computes the page boundary from the over-fetched id list:
// how many rows to keep, whether more pages exist, and the next cursor.
func Finalize(ids []int64, perPage int) (keep int, hasMore bool, nextCursor *string) {
	keep = len(ids)
	if keep > perPage {
		keep = perPage
		hasMore = true
	}
	if hasMore && keep > 0 {
		cursor := models.EncodeCursor(ids[keep-1])
		nextCursor = &cursor
	}
	return keep, hasMore, nextCursor
}
