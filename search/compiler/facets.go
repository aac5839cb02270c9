package compiler

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/search/models"
)

// m2m names one entity-side association table.
type m2m struct {
	assoc string // association table, e.g. bulletin_labels
	fk    string // entity fk column, e.g. bulletin_id
	ref   string // referenced id column, e.g. label_id
}

// compileIDs restricts to an explicit id set. An empty (non-nil) set matches
// nothing, by contract.
func compileIDs(c *Compiled, ids []int64) {
	if ids == nil {
		return
	}
	c.Where("id = ANY(?)", pq.Array(ids))
}

// compileFreeText compiles tsv/extsv against a single trigram-indexed search
// column. Inclusion emits one ILIKE per word so the GIN trigram index is
// used; ILIKE ALL over an array defeats it. Exclusion is a single
// NOT ILIKE ALL, which plans as a trigram antijoin.
func compileFreeText(c *Compiled, q *models.SearchQuery, searchCol string) {
	for _, word := range splitWords(q.Tsv) {
		c.Where(searchCol+" ILIKE ?", containsPattern(word))
	}

	if q.ExTsv != "" {
		patterns := exclusionPatterns(q.ExTsv)
		c.Where(searchCol+" NOT ILIKE ALL(?)", pq.Array(patterns))
	}
}

// exclusionPatterns renders the extsv patterns: a quoted term is an
// exact-phrase match, otherwise one pattern per word.
func exclusionPatterns(extsv string) []string {
	if isQuotedPhrase(extsv) {
		return []string{containsPattern(unquotePhrase(extsv))}
	}
	words := splitWords(extsv)
	patterns := make([]string, 0, len(words))
	for _, w := range words {
		patterns = append(patterns, containsPattern(w))
	}
	return patterns
}

// compileTerms compiles the search-term chips. Each chip is a literal
// phrase: exact chips use a word-boundary regex, loose chips use substring
// ILIKE. opOr selects OR across chips, else AND.
func compileTerms(c *Compiled, searchCol string, terms []string, exact, opOr bool) {
	if len(terms) == 0 {
		return
	}
	frags := make([]string, 0, len(terms))
	args := make([]interface{}, 0, len(terms))
	for _, term := range terms {
		if exact {
			frags = append(frags, searchCol+" ~* ?")
			args = append(args, wordBoundaryPattern(term))
		} else {
			frags = append(frags, searchCol+" ILIKE ?")
			args = append(args, containsPattern(term))
		}
	}
	if opOr {
		c.Where("("+joinOr(frags)+")", args...)
		return
	}
	for i, frag := range frags {
		c.Where(frag, args[i])
	}
}

// compileExTerms compiles exclusion chips: negated boundary regex or negated
// ILIKE, ANDed so every excluded phrase must be absent.
func compileExTerms(c *Compiled, searchCol string, terms []string, exact bool) {
	for _, term := range terms {
		if exact {
			c.Where(searchCol+" !~* ?", wordBoundaryPattern(term))
		} else {
			c.Where(searchCol+" NOT ILIKE ?", containsPattern(term))
		}
	}
}

// compileTags compiles tag facets. Exact matching uses array containment,
// which the GIN index serves; loose matching falls back to a flattened
// ILIKE. Exclusion negates accordingly.
func compileTags(c *Compiled, q *models.SearchQuery) {
	if len(q.Tags) > 0 {
		frags := make([]string, 0, len(q.Tags))
		args := make([]interface{}, 0, len(q.Tags))
		for _, tag := range q.Tags {
			if q.InExact {
				frags = append(frags, "tags @> ?")
				args = append(args, pq.Array([]string{tag}))
			} else {
				frags = append(frags, "array_to_string(tags, ' ') ILIKE ?")
				args = append(args, containsPattern(tag))
			}
		}
		if q.OpTags {
			c.Where("("+joinOr(frags)+")", args...)
		} else {
			for i, frag := range frags {
				c.Where(frag, args[i])
			}
		}
	}

	for _, tag := range q.ExTags {
		if q.ExExact {
			c.Where("NOT (tags @> ?)", pq.Array([]string{tag}))
		} else {
			c.Where("array_to_string(tags, ' ') NOT ILIKE ?", containsPattern(tag))
		}
	}
}

// compileTaxonomy compiles one include/exclude taxonomy facet pair over an
// association table, with optional in-memory descent into children.
// OR emits a single membership test over the expanded set; AND emits one
// test per selected taxon with that taxon's expansion substituted in place.
func compileTaxonomy(ctx context.Context, c *Compiled, j m2m, include, exclude []int64, opAny, children bool, expand func(context.Context, []int64) ([]int64, error)) error {
	expandSet := func(ids []int64) ([]int64, error) {
		if !children || expand == nil {
			return ids, nil
		}
		return expand(ctx, ids)
	}

	if len(include) > 0 {
		if opAny {
			set, err := expandSet(include)
			if err != nil {
				return err
			}
			c.Where(
				fmt.Sprintf("id IN (SELECT %s FROM %s WHERE %s = ANY(?))", j.fk, j.assoc, j.ref),
				pq.Array(set),
			)
		} else {
			for _, id := range include {
				set, err := expandSet([]int64{id})
				if err != nil {
					return err
				}
				c.Where(
					fmt.Sprintf("id IN (SELECT %s FROM %s WHERE %s = ANY(?))", j.fk, j.assoc, j.ref),
					pq.Array(set),
				)
			}
		}
	}

	if len(exclude) > 0 {
		set, err := expandSet(exclude)
		if err != nil {
			return err
		}
		c.Where(
			fmt.Sprintf("id NOT IN (SELECT %s FROM %s WHERE %s = ANY(?))", j.fk, j.assoc, j.ref),
			pq.Array(set),
		)
	}

	return nil
}

// compileEntityLocations compiles the location taxonomy facet for entities
// tagged through an association table. Descent uses the materialised id_tree
// so matching any descendant of L is a single LIKE '%[L]%'.
func compileEntityLocations(c *Compiled, j m2m, include, exclude []int64, opAny bool) {
	sub := fmt.Sprintf(
		"SELECT a.%s FROM %s a JOIN locations l ON l.id = a.%s WHERE l.id_tree LIKE ?",
		j.fk, j.assoc, j.ref,
	)

	if len(include) > 0 {
		if opAny {
			frags := make([]string, 0, len(include))
			args := make([]interface{}, 0, len(include))
			for _, id := range include {
				frags = append(frags, "id IN ("+sub+")")
				args = append(args, idTreePattern(id))
			}
			c.Where("("+joinOr(frags)+")", args...)
		} else {
			for _, id := range include {
				c.Where("id IN ("+sub+")", idTreePattern(id))
			}
		}
	}

	for _, id := range exclude {
		c.Where("id NOT IN ("+sub+")", idTreePattern(id))
	}
}

// compileDateRange compiles an inclusive day-granular BETWEEN over a bare
// column reference.
func compileDateRange(c *Compiled, facet, column string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	start, end, err := dayRange(values, models.ParseDate)
	if err != nil {
		return searchErrors.NewQueryError(facet, err.Error())
	}
	c.Where(column+" BETWEEN ? AND ?", start, end)
	return nil
}

// compileEvents compiles the event facets over the entity's event
// association. With singleEvent one event must satisfy every constraint;
// otherwise each constraint may be satisfied by a different event.
func compileEvents(c *Compiled, j m2m, q *models.SearchQuery) error {
	type eventCond struct {
		frag         string
		args         []interface{}
		joinLocation bool
	}
	var conds []eventCond

	if len(q.EDate) > 0 {
		start, end, err := dayRange(q.EDate, models.ParseDate)
		if err != nil {
			return searchErrors.NewQueryError("edate", err.Error())
		}
		conds = append(conds, eventCond{
			frag: "e.from_date <= ? AND COALESCE(e.to_date, e.from_date) >= ?",
			args: []interface{}{end, start},
		})
	}
	if q.EType != nil {
		conds = append(conds, eventCond{
			frag: "e.eventtype_id = ?",
			args: []interface{}{*q.EType},
		})
	}
	if q.ELocation != nil {
		conds = append(conds, eventCond{
			frag:         "el.id_tree LIKE ?",
			args:         []interface{}{idTreePattern(*q.ELocation)},
			joinLocation: true,
		})
	}
	if len(conds) == 0 {
		return nil
	}

	sub := func(where string, joinLocation bool) string {
		join := ""
		if joinLocation {
			join = " JOIN locations el ON el.id = e.location_id"
		}
		return fmt.Sprintf(
			"id IN (SELECT a.%s FROM %s a JOIN events e ON e.id = a.event_id%s WHERE %s)",
			j.fk, j.assoc, join, where,
		)
	}

	if q.SingleEvent {
		where := ""
		var args []interface{}
		joinLocation := false
		for i, cond := range conds {
			if i > 0 {
				where += " AND "
			}
			where += cond.frag
			args = append(args, cond.args...)
			joinLocation = joinLocation || cond.joinLocation
		}
		c.Where(sub(where, joinLocation), args...)
		return nil
	}

	for _, cond := range conds {
		c.Where(sub(cond.frag, cond.joinLocation), cond.args...)
	}
	return nil
}

// compileWorkflow compiles status, review and assignment facets plus the
// role-restriction facets over the entity's role association.
func compileWorkflow(c *Compiled, j m2m, q *models.SearchQuery) {
	if len(q.Statuses) > 0 {
		c.Where("status = ANY(?)", pq.Array(q.Statuses))
	}
	if q.ReviewAction != "" {
		c.Where("review_action = ?", q.ReviewAction)
	}
	if len(q.Assigned) > 0 {
		c.Where("assigned_to_id = ANY(?)", pq.Array(q.Assigned))
	}
	if q.Unassigned {
		c.Where("assigned_to_id IS NULL")
	}
	if len(q.Reviewer) > 0 {
		c.Where("first_peer_reviewer_id = ANY(?)", pq.Array(q.Reviewer))
	}
	if len(q.Roles) > 0 {
		c.Where(
			fmt.Sprintf("id IN (SELECT %s FROM %s WHERE %s = ANY(?))", j.fk, j.assoc, j.ref),
			pq.Array(q.Roles),
		)
	}
	if q.NoRole {
		c.Where(fmt.Sprintf("id NOT IN (SELECT %s FROM %s)", j.fk, j.assoc))
	}
}

// compileRelation compiles one rel_to_* facet by loading the related id set
// through the relation store.
func compileRelation(ctx context.Context, c *Compiled, deps Deps, sourceClass string, facet string, sourceID *int64, targetClass string) error {
	if sourceID == nil {
		return nil
	}
	if deps.Relations == nil {
		return searchErrors.NewQueryError(facet, "relation lookup unavailable")
	}
	ids, err := deps.Relations.RelatedIDs(ctx, sourceClass, *sourceID, targetClass)
	if err != nil {
		return searchErrors.NewQueryError(facet, err.Error())
	}
	c.Where("id = ANY(?)", pq.Array(ids))
	return nil
}

// geoWithin renders the point-in-circle predicate for a geometry column.
func geoWithin(column string) string {
	return "ST_DWithin(" + column + "::geography, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)"
}

func geoArgs(ll *models.LatLng) []interface{} {
	return []interface{}{ll.Lng, ll.Lat, ll.Radius}
}

func joinOr(frags []string) string {
	out := ""
	for i, f := range frags {
		if i > 0 {
			out += " OR "
		}
		out += f
	}
	return out
}
