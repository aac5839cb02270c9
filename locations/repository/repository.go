package repository

import (
	"context"

	"github.com/daleel/api/locations/models"
	"github.com/daleel/api/search/compiler"
	"github.com/daleel/api/search/paginator"
)

// LocationRepository defines persistence for the location hierarchy.
type LocationRepository interface {
	Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Location, *int64, error)
	Count(ctx context.Context, compiled *compiler.Compiled) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	Update(ctx context.Context, location *models.Location) error
	RegenerateTree(ctx context.Context) (int64, error)
}
