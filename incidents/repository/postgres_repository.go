package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daleel/api/incidents/models"
	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/search/paginator"
)

// incidentColumns is the full per-row projection, including the role-id
// aggregate consulted by the serialisation-time access check.
const incidentColumns = `t.id, t.title, t.title_ar, t.description, t.status,
	t.comments, t.review, t.review_action, t.assigned_to_id,
	t.first_peer_reviewer_id, t.tags, t.created_at, t.updated_at,
	(SELECT COALESCE(array_agg(ir.role_id), '{}') FROM incident_roles ir
	 WHERE ir.incident_id = t.id) AS role_ids`

// postgresRepository implements IncidentRepository using raw SQL queries
type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a new PostgreSQL repository for incidents
func NewPostgresRepository(client *postgres.Client) IncidentRepository {
	return &postgresRepository{client: client}
}

func (r *postgresRepository) getExecutor(ctx context.Context) sqlx.ExtContext {
	if txVal := ctx.Value("tx"); txVal != nil {
		if tx, ok := txVal.(*sqlx.Tx); ok {
			return tx
		}
	}
	return r.client.DB()
}

type incidentRow struct {
	models.Incident
	TotalCount int64 `db:"total_count"`
}

func (r *postgresRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Incident, *int64, error) {
	query, args, err := paginator.BuildDataQuery(compiled, incidentColumns, req, req.WantCount())
	if err != nil {
		return nil, nil, err
	}

	var rows []incidentRow
	if err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to search incidents: %w", err)
	}

	incidents := make([]models.Incident, 0, len(rows))
	for _, row := range rows {
		incidents = append(incidents, row.Incident)
	}

	var total *int64
	if req.WantCount() {
		count := int64(0)
		if len(rows) > 0 {
			count = rows[0].TotalCount
		}
		total = &count
	}
	return incidents, total, nil
}

func (r *postgresRepository) Count(ctx context.Context, compiled *compiler.Compiled) (int64, error) {
	query, args := paginator.BuildCountQuery(compiled)
	var count int64
	if err := sqlx.GetContext(ctx, r.getExecutor(ctx), &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := "SELECT " + incidentColumns + " FROM incidents t WHERE t.id = $1"

	var incident models.Incident
	err := sqlx.GetContext(ctx, r.getExecutor(ctx), &incident, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, searchErrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find incident %d: %w", id, err)
	}
	return &incident, nil
}

func (r *postgresRepository) Create(ctx context.Context, incident *models.Incident, userID int64) error {
	now := time.Now()
	incident.CreatedAt = now
	incident.UpdatedAt = now
	if incident.Status == "" {
		incident.Status = "Human Created"
	}

	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO incidents (
				title, title_ar, description, status, comments, tags,
				search, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`

		err := tx.QueryRowxContext(ctx, query,
			incident.Title, incident.TitleAr, incident.Description,
			incident.Status, incident.Comments, incident.Tags,
			searchText(incident), incident.CreatedAt, incident.UpdatedAt,
		).Scan(&incident.ID)
		if err != nil {
			return fmt.Errorf("failed to insert incident: %w", err)
		}

		return insertRevision(ctx, tx, incident, userID)
	})
}

func (r *postgresRepository) Update(ctx context.Context, incident *models.Incident, userID int64) error {
	incident.UpdatedAt = time.Now()

	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE incidents SET
				title = $1, title_ar = $2, description = $3, status = $4,
				comments = $5, tags = $6, search = $7, updated_at = $8
			WHERE id = $9`

		result, err := tx.ExecContext(ctx, query,
			incident.Title, incident.TitleAr, incident.Description,
			incident.Status, incident.Comments, incident.Tags,
			searchText(incident), incident.UpdatedAt, incident.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update incident %d: %w", incident.ID, err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return searchErrors.ErrNotFound
		}

		return insertRevision(ctx, tx, incident, userID)
	})
}

func (r *postgresRepository) UpdateReview(ctx context.Context, id int64, review, reviewAction, status string, reviewerID int64) error {
	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE incidents SET
				review = $1, review_action = $2, status = $3,
				first_peer_reviewer_id = COALESCE(first_peer_reviewer_id, $4),
				updated_at = $5
			WHERE id = $6`

		result, err := tx.ExecContext(ctx, query, review, reviewAction, status, reviewerID, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to review incident %d: %w", id, err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return searchErrors.ErrNotFound
		}

		var incident models.Incident
		sel := "SELECT " + incidentColumns + " FROM incidents t WHERE t.id = $1"
		if err := tx.GetContext(ctx, &incident, sel, id); err != nil {
			return fmt.Errorf("failed to reload incident %d: %w", id, err)
		}
		return insertRevision(ctx, tx, &incident, reviewerID)
	})
}

func (r *postgresRepository) Assign(ctx context.Context, id int64, userID int64, status string) error {
	query := `
		UPDATE incidents SET assigned_to_id = $1, status = $2, updated_at = $3
		WHERE id = $4 AND assigned_to_id IS NULL`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, userID, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to assign incident %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return searchErrors.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Revisions(ctx context.Context, id int64, limit int) ([]models.Revision, error) {
	query := `
		SELECT id, incident_id, data, user_id, created_at
		FROM incident_history
		WHERE incident_id = $1
		ORDER BY id DESC
		LIMIT $2`

	var revisions []models.Revision
	if err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &revisions, query, id, limit); err != nil {
		return nil, fmt.Errorf("failed to load incident %d history: %w", id, err)
	}
	return revisions, nil
}

func insertRevision(ctx context.Context, tx *sqlx.Tx, incident *models.Incident, userID int64) error {
	snapshot, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to snapshot incident %d: %w", incident.ID, err)
	}

	query := `
		INSERT INTO incident_history (incident_id, data, user_id, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, incident.ID, snapshot, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to insert incident %d revision: %w", incident.ID, err)
	}
	return nil
}

// searchText materialises the denormalised search column.
func searchText(i *models.Incident) string {
	return i.Title + " " + i.TitleAr + " " + i.Description + " " + i.Comments
}
