package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/savedsearches/models"
	searchErrors "github.com/daleel/api/search/errors"
)

const savedSearchColumns = "id, name, entity_type, query, user_id, created_at, updated_at"

// postgresRepository implements SavedSearchRepository using raw SQL queries
type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a new PostgreSQL repository for saved searches
func NewPostgresRepository(client *postgres.Client) SavedSearchRepository {
	return &postgresRepository{client: client}
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID int64, entityType string) ([]models.SavedSearch, error) {
	query := "SELECT " + savedSearchColumns + " FROM saved_searches WHERE user_id = $1"
	args := []interface{}{userID}
	if entityType != "" {
		query += " AND entity_type = $2"
		args = append(args, entityType)
	}
	query += " ORDER BY id DESC"

	var searches []models.SavedSearch
	if err := sqlx.SelectContext(ctx, r.client.DB(), &searches, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	return searches, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, userID, id int64) (*models.SavedSearch, error) {
	query := "SELECT " + savedSearchColumns + " FROM saved_searches WHERE id = $1 AND user_id = $2"

	var search models.SavedSearch
	err := sqlx.GetContext(ctx, r.client.DB(), &search, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, searchErrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find saved search %d: %w", id, err)
	}
	return &search, nil
}

func (r *postgresRepository) ExistsByName(ctx context.Context, userID int64, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM saved_searches WHERE user_id = $1 AND name = $2)"
	if err := sqlx.GetContext(ctx, r.client.DB(), &exists, query, userID, name); err != nil {
		return false, fmt.Errorf("failed to check saved search name: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Create(ctx context.Context, search *models.SavedSearch) error {
	now := time.Now()
	search.CreatedAt = now
	search.UpdatedAt = now

	query := `
		INSERT INTO saved_searches (name, entity_type, query, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.client.DB().QueryRowxContext(ctx, query,
		search.Name, search.EntityType, search.Query, search.UserID,
		search.CreatedAt, search.UpdatedAt,
	).Scan(&search.ID)
	if err != nil {
		return fmt.Errorf("failed to insert saved search: %w", err)
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, search *models.SavedSearch) error {
	search.UpdatedAt = time.Now()

	query := `
		UPDATE saved_searches SET name = $1, entity_type = $2, query = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6`

	result, err := r.client.DB().ExecContext(ctx, query,
		search.Name, search.EntityType, search.Query, search.UpdatedAt,
		search.ID, search.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update saved search %d: %w", search.ID, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return searchErrors.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.client.DB().ExecContext(ctx,
		"DELETE FROM saved_searches WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete saved search %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return searchErrors.ErrNotFound
	}
	return nil
}
