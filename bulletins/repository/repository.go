package repository

import (
	"context"

	"github.com/daleel/api/bulletins/models"
	"github.com/daleel/api/search/compiler"
	"github.com/daleel/api/search/paginator"
)

// BulletinRepository defines the persistence contract for bulletins.
type BulletinRepository interface {
	Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Bulletin, *int64, error)
	Count(ctx context.Context, compiled *compiler.Compiled) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Bulletin, error)
	Create(ctx context.Context, bulletin *models.Bulletin, userID int64) error
	Update(ctx context.Context, bulletin *models.Bulletin, userID int64) error
	UpdateReview(ctx context.Context, id int64, review, reviewAction, status string, reviewerID int64) error
	Assign(ctx context.Context, id int64, userID int64, status string) error
	Revisions(ctx context.Context, id int64, limit int) ([]models.Revision, error)
}
