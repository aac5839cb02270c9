package repository

import (
	"context"

	"github.com/daleel/api/activities/models"
	"github.com/daleel/api/search/compiler"
	"github.com/daleel/api/search/paginator"
)

// ActivityRepository persists and searches the audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *models.Activity) error
	Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Activity, *int64, error)
}
