package compiler

import (
	"context"

	"github.com/daleel/api/search/models"
)

// Bulletin association tables.
var (
	bulletinLabels    = m2m{assoc: "bulletin_labels", fk: "bulletin_id", ref: "label_id"}
	bulletinVerLabels = m2m{assoc: "bulletin_verlabels", fk: "bulletin_id", ref: "label_id"}
	bulletinSources   = m2m{assoc: "bulletin_sources", fk: "bulletin_id", ref: "source_id"}
	bulletinLocations = m2m{assoc: "bulletin_locations", fk: "bulletin_id", ref: "location_id"}
	bulletinEvents    = m2m{assoc: "bulletin_events", fk: "bulletin_id", ref: "event_id"}
	bulletinRoles     = m2m{assoc: "bulletin_roles", fk: "bulletin_id", ref: "role_id"}
)

func compileBulletinBlock(ctx context.Context, q *models.SearchQuery, deps Deps, c *Compiled) error {
	compileIDs(c, q.IDs)

	compileFreeText(c, q, "search")
	compileTerms(c, "search", q.Terms, q.TermsExact, q.OpTerms)
	compileExTerms(c, "search", q.ExTerms, q.TermsExact)

	compileTags(c, q)

	if err := compileTaxonomy(ctx, c, bulletinLabels, q.Labels, q.ExLabels, q.OpLabels, q.ChildLabels, expandLabels(deps)); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, bulletinVerLabels, q.VerLabels, q.ExVerLabels, q.OpVerLabels, q.ChildVerLabels, expandLabels(deps)); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, bulletinSources, q.Sources, q.ExSources, q.OpSources, q.ChildSources, expandSources(deps)); err != nil {
		return err
	}
	compileEntityLocations(c, bulletinLocations, q.Locations, q.ExLocations, q.OpLocations)

	if err := compileDateRange(c, "created", "created_at", q.Created); err != nil {
		return err
	}
	if err := compileDateRange(c, "updated", "updated_at", q.Updated); err != nil {
		return err
	}
	if err := compileDateRange(c, "pubdate", "publish_date", q.PubDate); err != nil {
		return err
	}
	if err := compileDateRange(c, "docdate", "documentation_date", q.DocDate); err != nil {
		return err
	}

	if err := compileEvents(c, bulletinEvents, q); err != nil {
		return err
	}

	compileWorkflow(c, bulletinRoles, q)

	if err := compileRelation(ctx, c, deps, ClassBulletin, "rel_to_bulletin", q.RelToBulletin, ClassBulletin); err != nil {
		return err
	}
	if err := compileRelation(ctx, c, deps, ClassActor, "rel_to_actor", q.RelToActor, ClassBulletin); err != nil {
		return err
	}
	if err := compileRelation(ctx, c, deps, ClassIncident, "rel_to_incident", q.RelToIncident, ClassBulletin); err != nil {
		return err
	}

	compileBulletinGeo(c, q)

	return compileDynFilters(c, q.Dyn, deps.Fields)
}

// compileBulletinGeo compiles the radius facet over the selected location
// types: tagged locations, standalone geo markers, and event locations.
func compileBulletinGeo(c *Compiled, q *models.SearchQuery) {
	if q.LatLng == nil {
		return
	}
	types := q.LocTypes
	if len(types) == 0 {
		types = []string{"locations", "geomarkers", "events"}
	}

	var frags []string
	var args []interface{}
	for _, t := range types {
		switch t {
		case "locations":
			frags = append(frags,
				"id IN (SELECT a.bulletin_id FROM bulletin_locations a JOIN locations l ON l.id = a.location_id WHERE "+geoWithin("l.latlng")+")")
			args = append(args, geoArgs(q.LatLng)...)
		case "geomarkers":
			frags = append(frags,
				"id IN (SELECT g.bulletin_id FROM geo_locations g WHERE "+geoWithin("g.latlng")+")")
			args = append(args, geoArgs(q.LatLng)...)
		case "events":
			frags = append(frags,
				"id IN (SELECT a.bulletin_id FROM bulletin_events a JOIN events e ON e.id = a.event_id JOIN locations el ON el.id = e.location_id WHERE "+geoWithin("el.latlng")+")")
			args = append(args, geoArgs(q.LatLng)...)
		}
	}
	if len(frags) == 0 {
		return
	}
	c.Where("("+joinOr(frags)+")", args...)
}

func expandLabels(deps Deps) func(context.Context, []int64) ([]int64, error) {
	if deps.Taxonomy == nil {
		return nil
	}
	return deps.Taxonomy.ExpandLabels
}

func expandSources(deps Deps) func(context.Context, []int64) ([]int64, error) {
	if deps.Taxonomy == nil {
		return nil
	}
	return deps.Taxonomy.ExpandSources
}
