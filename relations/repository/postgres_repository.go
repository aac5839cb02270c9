// Package repository resolves entity-to-entity relation id sets. Relations
// live in six tables: one symmetric self-relation table per entity class
// (btob, atoa, itoi) and one table per cross-class pair (atob, itob, itoa).
package repository

import (
	"context"
	"fmt"

	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/search/compiler"
)

type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a relation repository backing the rel_to_*
// search facets.
func NewPostgresRepository(client *postgres.Client) compiler.RelationStore {
	return &postgresRepository{client: client}
}

// RelatedIDs returns the ids of targetClass entities related to the given
// sourceClass entity. Self-relation tables are scanned in both directions;
// cross-class tables store each pair once in a fixed column order.
func (r *postgresRepository) RelatedIDs(ctx context.Context, sourceClass string, sourceID int64, targetClass string) ([]int64, error) {
	query, err := relationQuery(sourceClass, targetClass)
	if err != nil {
		return nil, err
	}

	ids := []int64{}
	if err := r.client.DB().SelectContext(ctx, &ids, query, sourceID); err != nil {
		return nil, fmt.Errorf("failed to load %s relations of %s %d: %w", targetClass, sourceClass, sourceID, err)
	}
	return ids, nil
}

func relationQuery(sourceClass, targetClass string) (string, error) {
	type pair struct{ source, target string }
	switch (pair{sourceClass, targetClass}) {
	case pair{compiler.ClassBulletin, compiler.ClassBulletin}:
		return `SELECT related_bulletin_id FROM btob WHERE bulletin_id = $1
			UNION SELECT bulletin_id FROM btob WHERE related_bulletin_id = $1`, nil
	case pair{compiler.ClassActor, compiler.ClassActor}:
		return `SELECT related_actor_id FROM atoa WHERE actor_id = $1
			UNION SELECT actor_id FROM atoa WHERE related_actor_id = $1`, nil
	case pair{compiler.ClassIncident, compiler.ClassIncident}:
		return `SELECT related_incident_id FROM itoi WHERE incident_id = $1
			UNION SELECT incident_id FROM itoi WHERE related_incident_id = $1`, nil
	case pair{compiler.ClassActor, compiler.ClassBulletin}:
		return `SELECT bulletin_id FROM atob WHERE actor_id = $1`, nil
	case pair{compiler.ClassBulletin, compiler.ClassActor}:
		return `SELECT actor_id FROM atob WHERE bulletin_id = $1`, nil
	case pair{compiler.ClassIncident, compiler.ClassBulletin}:
		return `SELECT bulletin_id FROM itob WHERE incident_id = $1`, nil
	case pair{compiler.ClassBulletin, compiler.ClassIncident}:
		return `SELECT incident_id FROM itob WHERE bulletin_id = $1`, nil
	case pair{compiler.ClassIncident, compiler.ClassActor}:
		return `SELECT actor_id FROM itoa WHERE incident_id = $1`, nil
	case pair{compiler.ClassActor, compiler.ClassIncident}:
		return `SELECT incident_id FROM itoa WHERE actor_id = $1`, nil
	default:
		return "", fmt.Errorf("no relation table for %s -> %s", sourceClass, targetClass)
	}
}
