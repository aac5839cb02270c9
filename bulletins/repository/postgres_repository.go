package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daleel/api/bulletins/models"
	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/search/paginator"
)

// bulletinColumns is the full per-row projection, including the role-id
// aggregate consulted by the serialisation-time access check.
const bulletinColumns = `t.id, t.title, t.title_ar, t.sjac_title, t.sjac_title_ar,
	t.description, t.source_link, t.originid, t.publish_date, t.documentation_date,
	t.status, t.comments, t.review, t.review_action, t.assigned_to_id,
	t.first_peer_reviewer_id, t.tags, t.created_at, t.updated_at,
	(SELECT COALESCE(array_agg(br.role_id), '{}') FROM bulletin_roles br
	 WHERE br.bulletin_id = t.id) AS role_ids`

// postgresRepository implements BulletinRepository using raw SQL queries
type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a new PostgreSQL repository for bulletins
func NewPostgresRepository(client *postgres.Client) BulletinRepository {
	return &postgresRepository{client: client}
}

// getExecutor returns either the transaction from context or the DB connection
func (r *postgresRepository) getExecutor(ctx context.Context) sqlx.ExtContext {
	if txVal := ctx.Value("tx"); txVal != nil {
		if tx, ok := txVal.(*sqlx.Tx); ok {
			return tx
		}
	}
	return r.client.DB()
}

// bulletinRow carries the optional window count next to the entity columns.
type bulletinRow struct {
	models.Bulletin
	TotalCount int64 `db:"total_count"`
}

func (r *postgresRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Bulletin, *int64, error) {
	query, args, err := paginator.BuildDataQuery(compiled, bulletinColumns, req, req.WantCount())
	if err != nil {
		return nil, nil, err
	}

	var rows []bulletinRow
	if err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to search bulletins: %w", err)
	}

	bulletins := make([]models.Bulletin, 0, len(rows))
	for _, row := range rows {
		bulletins = append(bulletins, row.Bulletin)
	}

	var total *int64
	if req.WantCount() {
		count := int64(0)
		if len(rows) > 0 {
			count = rows[0].TotalCount
		}
		total = &count
	}
	return bulletins, total, nil
}

func (r *postgresRepository) Count(ctx context.Context, compiled *compiler.Compiled) (int64, error) {
	query, args := paginator.BuildCountQuery(compiled)
	var count int64
	if err := sqlx.GetContext(ctx, r.getExecutor(ctx), &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count bulletins: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*models.Bulletin, error) {
	query := "SELECT " + bulletinColumns + " FROM bulletins t WHERE t.id = $1"

	var bulletin models.Bulletin
	err := sqlx.GetContext(ctx, r.getExecutor(ctx), &bulletin, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, searchErrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bulletin %d: %w", id, err)
	}
	return &bulletin, nil
}

func (r *postgresRepository) Create(ctx context.Context, bulletin *models.Bulletin, userID int64) error {
	now := time.Now()
	bulletin.CreatedAt = now
	bulletin.UpdatedAt = now
	if bulletin.Status == "" {
		bulletin.Status = models.StatusHumanCreated
	}

	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO bulletins (
				title, title_ar, sjac_title, sjac_title_ar, description,
				source_link, originid, publish_date, documentation_date,
				status, comments, tags, search, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id`

		err := tx.QueryRowxContext(ctx, query,
			bulletin.Title, bulletin.TitleAr, bulletin.SjacTitle, bulletin.SjacTitleAr,
			bulletin.Description, bulletin.SourceLink, bulletin.Originid,
			bulletin.PublishDate, bulletin.DocumentationDate, bulletin.Status,
			bulletin.Comments, bulletin.Tags, searchText(bulletin),
			bulletin.CreatedAt, bulletin.UpdatedAt,
		).Scan(&bulletin.ID)
		if err != nil {
			return fmt.Errorf("failed to insert bulletin: %w", err)
		}

		return insertRevision(ctx, tx, bulletin, userID)
	})
}

func (r *postgresRepository) Update(ctx context.Context, bulletin *models.Bulletin, userID int64) error {
	bulletin.UpdatedAt = time.Now()

	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE bulletins SET
				title = $1, title_ar = $2, sjac_title = $3, sjac_title_ar = $4,
				description = $5, source_link = $6, originid = $7,
				publish_date = $8, documentation_date = $9, status = $10,
				comments = $11, tags = $12, search = $13, updated_at = $14
			WHERE id = $15`

		result, err := tx.ExecContext(ctx, query,
			bulletin.Title, bulletin.TitleAr, bulletin.SjacTitle, bulletin.SjacTitleAr,
			bulletin.Description, bulletin.SourceLink, bulletin.Originid,
			bulletin.PublishDate, bulletin.DocumentationDate, bulletin.Status,
			bulletin.Comments, bulletin.Tags, searchText(bulletin),
			bulletin.UpdatedAt, bulletin.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update bulletin %d: %w", bulletin.ID, err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return searchErrors.ErrNotFound
		}

		return insertRevision(ctx, tx, bulletin, userID)
	})
}

func (r *postgresRepository) UpdateReview(ctx context.Context, id int64, review, reviewAction, status string, reviewerID int64) error {
	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE bulletins SET
				review = $1, review_action = $2, status = $3,
				first_peer_reviewer_id = COALESCE(first_peer_reviewer_id, $4),
				updated_at = $5
			WHERE id = $6`

		result, err := tx.ExecContext(ctx, query, review, reviewAction, status, reviewerID, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to review bulletin %d: %w", id, err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return searchErrors.ErrNotFound
		}

		bulletin, err := findForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		return insertRevision(ctx, tx, bulletin, reviewerID)
	})
}

func (r *postgresRepository) Assign(ctx context.Context, id int64, userID int64, status string) error {
	query := `
		UPDATE bulletins SET assigned_to_id = $1, status = $2, updated_at = $3
		WHERE id = $4 AND assigned_to_id IS NULL`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, userID, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to assign bulletin %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return searchErrors.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Revisions(ctx context.Context, id int64, limit int) ([]models.Revision, error) {
	query := `
		SELECT id, bulletin_id, data, user_id, created_at
		FROM bulletin_history
		WHERE bulletin_id = $1
		ORDER BY id DESC
		LIMIT $2`

	var revisions []models.Revision
	if err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &revisions, query, id, limit); err != nil {
		return nil, fmt.Errorf("failed to load bulletin %d history: %w", id, err)
	}
	return revisions, nil
}

func findForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Bulletin, error) {
	query := "SELECT " + bulletinColumns + " FROM bulletins t WHERE t.id = $1"
	var bulletin models.Bulletin
	if err := tx.GetContext(ctx, &bulletin, query, id); err != nil {
		return nil, fmt.Errorf("failed to reload bulletin %d: %w", id, err)
	}
	return &bulletin, nil
}

// insertRevision snapshots the full row into bulletin_history within the
// same transaction as the mutation, so history never diverges from data.
func insertRevision(ctx context.Context, tx *sqlx.Tx, bulletin *models.Bulletin, userID int64) error {
	snapshot, err := json.Marshal(bulletin)
	if err != nil {
		return fmt.Errorf("failed to snapshot bulletin %d: %w", bulletin.ID, err)
	}

	query := `
		INSERT INTO bulletin_history (bulletin_id, data, user_id, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, bulletin.ID, snapshot, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to insert bulletin %d revision: %w", bulletin.ID, err)
	}
	return nil
}

// searchText materialises the denormalised search column.
func searchText(b *models.Bulletin) string {
	return b.Title + " " + b.TitleAr + " " + b.SjacTitle + " " + b.SjacTitleAr + " " +
		b.Description + " " + b.Comments + " " + b.Originid
}
