package models

import (
	"encoding/json"
)

// SearchRequest is the body of every entity search endpoint. For Bulletin and
// Actor, Q is a list of faceted-query objects (nested-boolean form); for
// other entities it is a single object.
type SearchRequest struct {
	Q            json.RawMessage `json:"q"`
	Cursor       string          `json:"cursor,omitempty"`
	PerPage      int             `json:"per_page,omitempty"`
	IncludeCount bool            `json:"include_count,omitempty"`
}

// Meta describes the returned page.
type Meta struct {
	CurrentPageSize int  `json:"currentPageSize"`
	HasMore         bool `json:"hasMore"`
	IsFirstPage     bool `json:"isFirstPage"`
}

// SearchResponse is the envelope returned by every search endpoint. Total is
// present only in first-page-with-count mode.
type SearchResponse struct {
	Items      []interface{} `json:"items"`
	NextCursor *string       `json:"nextCursor"`
	Meta       Meta          `json:"meta"`
	Total      *int64        `json:"total,omitempty"`
	TotalType  string        `json:"totalType,omitempty"`
}

// TotalTypeExact marks a window- or direct-counted total.
const TotalTypeExact = "exact"
