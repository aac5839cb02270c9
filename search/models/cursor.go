package models

import (
	"fmt"
	"strconv"

	searchErrors "github.com/daleel/api/search/errors"
)

// Cursor paging is keyed strictly by id DESC: the only column guaranteed to
// be monotone and unique, so a page boundary is stable under concurrent
// inserts. The cursor is the string form of the last returned id.

// DecodeCursor parses a cursor string into the id boundary. An empty cursor
// means the first page.
func DecodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || id <= 0 {
		return 0, searchErrors.NewQueryError("cursor", fmt.Sprintf("invalid cursor %q", cursor))
	}
	return id, nil
}

// EncodeCursor renders the id boundary of the next page.
func EncodeCursor(lastID int64) string {
	return strconv.FormatInt(lastID, 10)
}

// ValidatePerPage normalizes the page size against configured bounds.
func ValidatePerPage(perPage, defaultPerPage, maxPerPage int) int {
	if perPage <= 0 {
		return defaultPerPage
	}
	if perPage > maxPerPage {
		return maxPerPage
	}
	return perPage
}
