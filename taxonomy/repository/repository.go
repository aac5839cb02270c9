package repository

import (
	"context"

	"github.com/daleel/api/taxonomy/models"
)

// TaxonomyRepository loads the taxonomy tables. The trees are small and
// read-heavy, so the service layer holds them in memory and reloads whole
// tables rather than querying per node.
type TaxonomyRepository interface {
	AllLabels(ctx context.Context) ([]models.Label, error)
	AllSources(ctx context.Context) ([]models.Source, error)
	AllEventtypes(ctx context.Context) ([]models.Eventtype, error)
}
