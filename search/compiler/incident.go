package compiler

import (
	"context"

	"github.com/daleel/api/search/models"
)

// Incident association tables.
var (
	incidentLabels     = m2m{assoc: "incident_labels", fk: "incident_id", ref: "label_id"}
	incidentVerLabels  = m2m{assoc: "incident_verlabels", fk: "incident_id", ref: "label_id"}
	incidentSources    = m2m{assoc: "incident_sources", fk: "incident_id", ref: "source_id"}
	incidentLocations  = m2m{assoc: "incident_locations", fk: "incident_id", ref: "location_id"}
	incidentEvents     = m2m{assoc: "incident_events", fk: "incident_id", ref: "event_id"}
	incidentRoles      = m2m{assoc: "incident_roles", fk: "incident_id", ref: "role_id"}
	incidentPotentialV = m2m{assoc: "incident_potential_violations", fk: "incident_id", ref: "potentialviolation_id"}
	incidentClaimedV   = m2m{assoc: "incident_claimed_violations", fk: "incident_id", ref: "claimedviolation_id"}
)

func compileIncidentBlock(ctx context.Context, q *models.SearchQuery, deps Deps, c *Compiled) error {
	compileIDs(c, q.IDs)

	compileFreeText(c, q, "search")
	compileTerms(c, "search", q.Terms, q.TermsExact, q.OpTerms)
	compileExTerms(c, "search", q.ExTerms, q.TermsExact)

	compileTags(c, q)

	if err := compileTaxonomy(ctx, c, incidentLabels, q.Labels, q.ExLabels, q.OpLabels, q.ChildLabels, expandLabels(deps)); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, incidentVerLabels, q.VerLabels, q.ExVerLabels, q.OpVerLabels, q.ChildVerLabels, expandLabels(deps)); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, incidentSources, q.Sources, q.ExSources, q.OpSources, q.ChildSources, expandSources(deps)); err != nil {
		return err
	}
	compileEntityLocations(c, incidentLocations, q.Locations, q.ExLocations, q.OpLocations)

	if err := compileTaxonomy(ctx, c, incidentPotentialV, q.PotentialVCats, nil, true, false, nil); err != nil {
		return err
	}
	if err := compileTaxonomy(ctx, c, incidentClaimedV, q.ClaimedVCats, nil, true, false, nil); err != nil {
		return err
	}

	if err := compileDateRange(c, "created", "created_at", q.Created); err != nil {
		return err
	}
	if err := compileDateRange(c, "updated", "updated_at", q.Updated); err != nil {
		return err
	}

	if err := compileEvents(c, incidentEvents, q); err != nil {
		return err
	}

	compileWorkflow(c, incidentRoles, q)

	if err := compileRelation(ctx, c, deps, ClassBulletin, "rel_to_bulletin", q.RelToBulletin, ClassIncident); err != nil {
		return err
	}
	if err := compileRelation(ctx, c, deps, ClassActor, "rel_to_actor", q.RelToActor, ClassIncident); err != nil {
		return err
	}
	if err := compileRelation(ctx, c, deps, ClassIncident, "rel_to_incident", q.RelToIncident, ClassIncident); err != nil {
		return err
	}

	return compileDynFilters(c, q.Dyn, deps.Fields)
}
