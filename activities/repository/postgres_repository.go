package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/daleel/api/activities/models"
	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/search/compiler"
	"github.com/daleel/api/search/paginator"
)

// postgresRepository implements ActivityRepository using raw SQL queries
type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a new PostgreSQL repository for activities
func NewPostgresRepository(client *postgres.Client) ActivityRepository {
	return &postgresRepository{client: client}
}

func (r *postgresRepository) Insert(ctx context.Context, activity *models.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO activities (user_id, action, status, subject, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.client.DB().QueryRowxContext(ctx, query,
		activity.UserID, activity.Action, activity.Status,
		activity.Subject, activity.Model, activity.CreatedAt,
	).Scan(&activity.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// activityRow carries the optional window count next to the entity columns.
type activityRow struct {
	models.Activity
	TotalCount int64 `db:"total_count"`
}

func (r *postgresRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Activity, *int64, error) {
	projection := "t.id, t.user_id, t.action, t.status, t.subject, t.model, t.created_at"
	withCount := req.WantCount()

	query, args, err := paginator.BuildDataQuery(compiled, projection, req, withCount)
	if err != nil {
		return nil, nil, err
	}

	var rows []activityRow
	if err := r.client.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to search activities: %w", err)
	}

	activities := make([]models.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, row.Activity)
	}

	var total *int64
	if withCount && len(rows) > 0 {
		total = &rows[0].TotalCount
	} else if withCount {
		zero := int64(0)
		total = &zero
	}
	return activities, total, nil
}
