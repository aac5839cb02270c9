package compiler

import (
	"context"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/daleel/api/search/models"
)

// Actor association tables. Labels, verified labels and sources are scoped
// to actor profiles, not the actor row itself.
var (
	actorProfileLabels    = m2m{assoc: "actor_profile_labels", fk: "actor_id", ref: "label_id"}
	actorProfileVerLabels = m2m{assoc: "actor_profile_verlabels", fk: "actor_id", ref: "label_id"}
	actorProfileSources   = m2m{assoc: "actor_profile_sources", fk: "actor_id", ref: "source_id"}
	actorEvents           = m2m{assoc: "actor_events", fk: "actor_id", ref: "event_id"}
	actorRoles            = m2m{assoc: "actor_roles", fk: "actor_id", ref: "role_id"}
	actorEthnographies    = m2m{assoc: "actor_ethnographies", fk: "actor_id", ref: "ethnography_id"}
	actorNationalities    = m2m{assoc: "actor_nationalities", fk: "actor_id", ref: "country_id"}
	actorDialects         = m2m{assoc: "actor_dialects", fk: "actor_id", ref: "dialect_id"}
)

func compileActorBlock(ctx context.Context, q *models.SearchQuery, deps Deps, c *Compiled) error {
	compileIDs(c, q.IDs)

	compileActorFreeText(c, q)
	compileTerms(c, "search", q.Terms, q.TermsExact, q.OpTerms)
	compileExTerms(c, "search", q.ExTerms, q.TermsExact)

	compileTags(c, q)

	compileActorNames(c, q)

	if err := compileTaxonomy(ctx, c, actorProfileLabels, q.Labels, q.ExLabels, q.OpLabels, q.ChildLabels, expandLabels(deps)); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, actorProfileVerLabels, q.VerLabels, q.ExVerLabels, q.OpVerLabels, q.ChildVerLabels, expandLabels(deps)); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, actorProfileSources, q.Sources, q.ExSources, q.OpSources, q.ChildSources, expandSources(deps)); err != nil {
		return err
	}

	if err := compileTaxonomy(ctx, c, actorEthnographies, q.Ethnography, nil, q.OpEthno, false, nil); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, actorNationalities, q.Nationality, nil, q.OpNat, false, nil); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, actorDialects, q.Dialects, nil, q.OpDialects, false, nil); err != nil {
		return err
	}

	compilePlaceFacet(c, "residence_place_id", q.ResLocations, q.ExResLocations)
	compilePlaceFacet(c, "origin_place_id", q.OriginLocations, q.ExOriginLocations)

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

	if err := compileEvents(c, actorEvents, q); err != nil {
		return err
	}

	compileWorkflow(c, actorRoles, q)

	if err := compileRelation(ctx, c, deps, ClassBulletin, "rel_to_bulletin", q.RelToBulletin, ClassActor); err != nil {
		return err
	}
	if err := compileRelation(ctx, c, deps, ClassActor, "rel_to_actor", q.RelToActor, ClassActor); err != nil {
		return err
	}
	if err := compileRelation(ctx, c, deps, ClassIncident, "rel_to_incident", q.RelToIncident, ClassActor); err != nil {
		return err
	}

	compileActorAttributes(c, q)
	compileIDNumber(c, q.IDNumber)
	compileActorGeo(c, q)

	return compileDynFilters(c, q.Dyn, deps.Fields)
}

// compileActorFreeText compiles tsv/extsv over the union of the actor search
// column and the per-profile search columns. Mode-3 profiles carry the
// missing-person attributes, so profile text must be searchable alongside
// the actor's own.
func compileActorFreeText(c *Compiled, q *models.SearchQuery) {
	const unionSub = "SELECT a.id FROM actors a WHERE a.search ILIKE ? " +
		"UNION SELECT ap.actor_id FROM actor_profiles ap WHERE ap.search ILIKE ?"

	for _, word := range splitWords(q.Tsv) {
		p := containsPattern(word)
		c.Where("id IN ("+unionSub+")", p, p)
	}

	if q.ExTsv != "" {
		const anySub = "SELECT a.id FROM actors a WHERE a.search ILIKE ANY(?) " +
			"UNION SELECT ap.actor_id FROM actor_profiles ap WHERE ap.search ILIKE ANY(?)"
		patterns := pq.Array(exclusionPatterns(q.ExTsv))
		c.Where("id NOT IN ("+anySub+")", patterns, patterns)
	}
}

// compileActorNames compiles the bilingual name-part facets.
func compileActorNames(c *Compiled, q *models.SearchQuery) {
	names := []struct {
		value string
		en    string
		ar    string
	}{
		{q.Nickname, "nickname", "nickname_ar"},
		{q.FirstName, "first_name", "first_name_ar"},
		{q.MiddleName, "middle_name", "middle_name_ar"},
		{q.LastName, "last_name", "last_name_ar"},
		{q.FatherName, "father_name", "father_name_ar"},
		{q.MotherName, "mother_name", "mother_name_ar"},
	}
	for _, n := range names {
		if n.value == "" {
			continue
		}
		p := containsPattern(n.value)
		c.Where("("+n.en+" ILIKE ? OR "+n.ar+" ILIKE ?)", p, p)
	}
}

// compilePlaceFacet compiles residence/origin place facets with id_tree
// descent on the referenced location.
func compilePlaceFacet(c *Compiled, column string, include, exclude []int64) {
	sub := "SELECT id FROM locations WHERE id_tree LIKE ?"

	if len(include) > 0 {
		frags := make([]string, 0, len(include))
		args := make([]interface{}, 0, len(include))
		for _, id := range include {
			frags = append(frags, column+" IN ("+sub+")")
			args = append(args, idTreePattern(id))
		}
		c.Where("("+joinOr(frags)+")", args...)
	}

	for _, id := range exclude {
		c.Where(column+" NOT IN ("+sub+")", idTreePattern(id))
	}
}

// compileActorAttributes compiles the scalar actor facets.
func compileActorAttributes(c *Compiled, q *models.SearchQuery) {
	if q.Occupation != "" {
		p := containsPattern(q.Occupation)
		c.Where("(occupation ILIKE ? OR occupation_ar ILIKE ?)", p, p)
	}
	if q.Position != "" {
		p := containsPattern(q.Position)
		c.Where("(position ILIKE ? OR position_ar ILIKE ?)", p, p)
	}
	if q.FamilyStatus != "" {
		c.Where("family_status = ?", q.FamilyStatus)
	}
	if q.Sex != "" {
		c.Where("sex = ?", q.Sex)
	}
	if len(q.Age) == 1 {
		c.Where("age = ?", q.Age[0])
	} else if len(q.Age) == 2 {
		c.Where("age BETWEEN ? AND ?", q.Age[0], q.Age[1])
	}
	if q.Civilian != "" {
		c.Where("civilian = ?", q.Civilian)
	}
	if q.Type != "" {
		c.Where("type = ?", q.Type)
	}
}

// compileIDNumber compiles the heterogeneous id_number facet. Exact shapes
// use JSONB containment; a substring number needs a row-scoped EXISTS over
// the unnested elements, with every value bound.
func compileIDNumber(c *Compiled, idn *models.IDNumber) {
	if idn == nil || (idn.Type == "" && idn.Number == "") {
		return
	}

	switch {
	case idn.Type != "" && idn.Number != "":
		c.Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements(id_number) AS idn WHERE idn->>'type' = ? AND idn->>'number' ILIKE ?)",
			idn.Type, containsPattern(idn.Number),
		)
	case idn.Number != "":
		c.Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements(id_number) AS idn WHERE idn->>'number' ILIKE ?)",
			containsPattern(idn.Number),
		)
	default:
		contains, _ := json.Marshal([]map[string]string{{"type": idn.Type}})
		c.Where("id_number @> ?", string(contains))
	}
}

// compileActorGeo compiles the radius facet over origin place and event
// locations.
func compileActorGeo(c *Compiled, q *models.SearchQuery) {
	if q.LatLng == nil {
		return
	}
	types := q.LocTypes
	if len(types) == 0 {
		types = []string{"originplace", "events"}
	}

	var frags []string
	var args []interface{}
	for _, t := range types {
		switch t {
		case "originplace":
			frags = append(frags,
				"origin_place_id IN (SELECT id FROM locations WHERE "+geoWithin("latlng")+")")
			args = append(args, geoArgs(q.LatLng)...)
		case "events":
			frags = append(frags,
				"id IN (SELECT a.actor_id FROM actor_events a JOIN events e ON e.id = a.event_id JOIN locations el ON el.id = e.location_id WHERE "+geoWithin("el.latlng")+")")
			args = append(args, geoArgs(q.LatLng)...)
		}
	}
	if len(frags) == 0 {
		return
	}
	c.Where("("+joinOr(frags)+")", args...)
}
