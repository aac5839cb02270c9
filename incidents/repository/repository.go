package repository

import (
	"context"

	"github.com/daleel/api/incidents/models"
	"github.com/daleel/api/search/compiler"
	"github.com/daleel/api/search/paginator"
)

// IncidentRepository defines the persistence contract for incidents.
type IncidentRepository interface {
	Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Incident, *int64, error)
	Count(ctx context.Context, compiled *compiler.Compiled) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Incident, error)
	Create(ctx context.Context, incident *models.Incident, userID int64) error
	Update(ctx context.Context, incident *models.Incident, userID int64) error
	UpdateReview(ctx context.Context, id int64, review, reviewAction, status string, reviewerID int64) error
	Assign(ctx context.Context, id int64, userID int64, status string) error
	Revisions(ctx context.Context, id int64, limit int) ([]models.Revision, error)
}
