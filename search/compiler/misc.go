package compiler

import (
	"context"

	"github.com/lib/pq"

	"github.com/daleel/api/search/models"
)

// compileLocationBlock compiles the location search facets. Location rows
// carry their own materialised full_location text and id_tree path.
func compileLocationBlock(_ context.Context, q *models.SearchQuery, _ Deps, c *Compiled) error {
	compileIDs(c, q.IDs)

	for _, word := range splitWords(q.Tsv) {
		p := containsPattern(word)
		c.Where("(title ILIKE ? OR title_ar ILIKE ? OR full_location ILIKE ?)", p, p, p)
	}
	if q.ExTsv != "" {
		patterns := pq.Array(exclusionPatterns(q.ExTsv))
		c.Where("full_location NOT ILIKE ALL(?)", patterns)
	}

	compileTags(c, q)

	// Subtree restriction: any selected location or a descendant of it.
	if len(q.Locations) > 0 {
		frags := make([]string, 0, len(q.Locations))
		args := make([]interface{}, 0, len(q.Locations))
		for _, id := range q.Locations {
			frags = append(frags, "id_tree LIKE ?")
			args = append(args, idTreePattern(id))
		}
		c.Where("("+joinOr(frags)+")", args...)
	}
	for _, id := range q.ExLocations {
		c.Where("id_tree NOT LIKE ?", idTreePattern(id))
	}

	if q.LatLng != nil {
		c.Where(geoWithin("latlng"), geoArgs(q.LatLng)...)
	}

	return compileDateRange(c, "created", "created_at", q.Created)
}

// compileActivityBlock compiles the audit-trail search facets.
func compileActivityBlock(_ context.Context, q *models.SearchQuery, _ Deps, c *Compiled) error {
	compileIDs(c, q.IDs)

	if len(q.Actions) > 0 {
		c.Where("action = ANY(?)", pq.Array(q.Actions))
	}
	if len(q.Statuses) > 0 {
		c.Where("status = ANY(?)", pq.Array(q.Statuses))
	}
	if q.Model != "" {
		c.Where("model = ?", q.Model)
	}
	if len(q.Users) > 0 {
		c.Where("user_id = ANY(?)", pq.Array(q.Users))
	}
	for _, word := range splitWords(q.Tsv) {
		c.Where("subject ILIKE ?", containsPattern(word))
	}

	return compileDateRange(c, "created", "created_at", q.Created)
}
