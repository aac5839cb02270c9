package repository

import (
	"context"

	"github.com/daleel/api/actors/models"
	"github.com/daleel/api/search/compiler"
	"github.com/daleel/api/search/paginator"
)

// ActorRepository defines the persistence contract for actors.
type ActorRepository interface {
	Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Actor, *int64, error)
	Count(ctx context.Context, compiled *compiler.Compiled) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Actor, error)
	Profiles(ctx context.Context, actorID int64) ([]models.ActorProfile, error)
	Create(ctx context.Context, actor *models.Actor, userID int64) error
	Update(ctx context.Context, actor *models.Actor, userID int64) error
	UpdateReview(ctx context.Context, id int64, review, reviewAction, status string, reviewerID int64) error
	Assign(ctx context.Context, id int64, userID int64, status string) error
	Revisions(ctx context.Context, id int64, limit int) ([]models.Revision, error)
}
