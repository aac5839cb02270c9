package repository

import (
	"context"

	"github.com/daleel/api/savedsearches/models"
)

// SavedSearchRepository defines persistence for saved query envelopes.
// Every operation is scoped to the owning user.
type SavedSearchRepository interface {
	ListByUser(ctx context.Context, userID int64, entityType string) ([]models.SavedSearch, error)
	FindByID(ctx context.Context, userID, id int64) (*models.SavedSearch, error)
	ExistsByName(ctx context.Context, userID int64, name string) (bool, error)
	Create(ctx context.Context, search *models.SavedSearch) error
	Update(ctx context.Context, search *models.SavedSearch) error
	Delete(ctx context.Context, userID, id int64) error
}
