package repository

import (
	"context"
	"fmt"

	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/taxonomy/models"
)

// postgresRepository implements TaxonomyRepository using raw SQL queries
type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a new PostgreSQL repository for taxonomies
func NewPostgresRepository(client *postgres.Client) TaxonomyRepository {
	return &postgresRepository{client: client}
}

func (r *postgresRepository) AllLabels(ctx context.Context) ([]models.Label, error) {
	query := `
		SELECT id, title, title_ar, parent_id, verified,
		       for_bulletin, for_actor, for_incident, for_offline,
		       sort_order, created_at, updated_at
		FROM labels
		ORDER BY id`

	var labels []models.Label
	if err := r.client.DB().SelectContext(ctx, &labels, query); err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	return labels, nil
}

func (r *postgresRepository) AllSources(ctx context.Context) ([]models.Source, error) {
	query := `
		SELECT id, title, title_ar, parent_id, comments, created_at, updated_at
		FROM sources
		ORDER BY id`

	var sources []models.Source
	if err := r.client.DB().SelectContext(ctx, &sources, query); err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	return sources, nil
}

func (r *postgresRepository) AllEventtypes(ctx context.Context) ([]models.Eventtype, error) {
	query := `
		SELECT id, title, title_ar, for_bulletin, for_actor, comments
		FROM eventtypes
		ORDER BY id`

	var eventtypes []models.Eventtype
	if err := r.client.DB().SelectContext(ctx, &eventtypes, query); err != nil {
		return nil, fmt.Errorf("failed to load eventtypes: %w", err)
	}
	return eventtypes, nil
}
