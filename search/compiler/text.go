package compiler

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE/ILIKE metacharacters in a user-supplied term.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// containsPattern builds the %term% pattern for substring ILIKE matching.
func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

// wordBoundaryPattern builds the PostgreSQL word-boundary regex for an exact
// chip: regex metacharacters escaped, wrapped in \y anchors.
func wordBoundaryPattern(s string) string {
	return `\y` + regexp.QuoteMeta(s) + `\y`
}

// splitWords splits free text on whitespace, dropping empty tokens.
func splitWords(s string) []string {
	return strings.Fields(s)
}

// isQuotedPhrase reports whether the term is wrapped in straight double
// quotes, requesting exact-phrase matching.
func isQuotedPhrase(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

// unquotePhrase strips the surrounding straight double quotes.
func unquotePhrase(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
}

// dayRange expands a one- or two-element ISO date range to an inclusive
// [start_of_day, end_of_day] window. The column is never wrapped in a
// function so its B-tree index stays usable.
func dayRange(values []string, parse func(string) (time.Time, error)) (time.Time, time.Time, error) {
	start, err := parse(values[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start
	if len(values) > 1 {
		end, err = parse(values[1])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	startOfDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).
		Add(24*time.Hour - time.Microsecond)
	return startOfDay, endOfDay, nil
}

// idTreePattern is the LIKE pattern matching any location whose ancestor
// path contains the given location.
func idTreePattern(locationID int64) string {
	return "%[" + strconv.FormatInt(locationID, 10) + "]%"
}
