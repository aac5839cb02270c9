package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daleel/api/actors/models"
	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/search/paginator"
)

// actorColumns is the full per-row projection, including the role-id
// aggregate consulted by the serialisation-time access check.
const actorColumns = `t.id, t.name, t.name_ar, t.nickname, t.nickname_ar,
	t.first_name, t.first_name_ar, t.middle_name, t.middle_name_ar,
	t.last_name, t.last_name_ar, t.father_name, t.father_name_ar,
	t.mother_name, t.mother_name_ar, t.type, t.sex, t.age, t.civilian,
	t.occupation, t.occupation_ar, t.position, t.position_ar, t.family_status,
	t.id_number, t.residence_place_id, t.origin_place_id, t.status,
	t.comments, t.review, t.review_action, t.assigned_to_id,
	t.first_peer_reviewer_id, t.publish_date, t.documentation_date, t.tags,
	t.created_at, t.updated_at,
	(SELECT COALESCE(array_agg(ar.role_id), '{}') FROM actor_roles ar
	 WHERE ar.actor_id = t.id) AS role_ids`

// postgresRepository implements ActorRepository using raw SQL queries
type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a new PostgreSQL repository for actors
func NewPostgresRepository(client *postgres.Client) ActorRepository {
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

type actorRow struct {
	models.Actor
	TotalCount int64 `db:"total_count"`
}

func (r *postgresRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Actor, *int64, error) {
	query, args, err := paginator.BuildDataQuery(compiled, actorColumns, req, req.WantCount())
	if err != nil {
		return nil, nil, err
	}

	var rows []actorRow
	if err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to search actors: %w", err)
	}

	actors := make([]models.Actor, 0, len(rows))
	for _, row := range rows {
		actors = append(actors, row.Actor)
	}

	var total *int64
	if req.WantCount() {
		count := int64(0)
		if len(rows) > 0 {
			count = rows[0].TotalCount
		}
		total = &count
	}
	return actors, total, nil
}

func (r *postgresRepository) Count(ctx context.Context, compiled *compiler.Compiled) (int64, error) {
	query, args := paginator.BuildCountQuery(compiled)
	var count int64
	if err := sqlx.GetContext(ctx, r.getExecutor(ctx), &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count actors: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*models.Actor, error) {
	query := "SELECT " + actorColumns + " FROM actors t WHERE t.id = $1"

	var actor models.Actor
	err := sqlx.GetContext(ctx, r.getExecutor(ctx), &actor, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, searchErrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find actor %d: %w", id, err)
	}
	return &actor, nil
}

func (r *postgresRepository) Profiles(ctx context.Context, actorID int64) ([]models.ActorProfile, error) {
	query := `
		SELECT id, actor_id, mode, description, source_link, created_at, updated_at
		FROM actor_profiles
		WHERE actor_id = $1
		ORDER BY id`

	var profiles []models.ActorProfile
	if err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &profiles, query, actorID); err != nil {
		return nil, fmt.Errorf("failed to load actor %d profiles: %w", actorID, err)
	}
	return profiles, nil
}

func (r *postgresRepository) Create(ctx context.Context, actor *models.Actor, userID int64) error {
	now := time.Now()
	actor.CreatedAt = now
	actor.UpdatedAt = now
	if actor.Status == "" {
		actor.Status = "Human Created"
	}

	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO actors (
				name, name_ar, nickname, nickname_ar, first_name, first_name_ar,
				middle_name, middle_name_ar, last_name, last_name_ar,
				father_name, father_name_ar, mother_name, mother_name_ar,
				type, sex, age, civilian, occupation, occupation_ar,
				position, position_ar, family_status, id_number,
				residence_place_id, origin_place_id, status, comments, tags,
				search, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
				$27, $28, $29, $30, $31, $32
			)
			RETURNING id`

		err := tx.QueryRowxContext(ctx, query,
			actor.Name, actor.NameAr, actor.Nickname, actor.NicknameAr,
			actor.FirstName, actor.FirstNameAr, actor.MiddleName, actor.MiddleNameAr,
			actor.LastName, actor.LastNameAr, actor.FatherName, actor.FatherNameAr,
			actor.MotherName, actor.MotherNameAr, actor.Type, actor.Sex,
			actor.Age, actor.Civilian, actor.Occupation, actor.OccupationAr,
			actor.Position, actor.PositionAr, actor.FamilyStatus, idNumberValue(actor.IDNumber),
			actor.ResidencePlaceID, actor.OriginPlaceID, actor.Status, actor.Comments,
			actor.Tags, searchText(actor), actor.CreatedAt, actor.UpdatedAt,
		).Scan(&actor.ID)
		if err != nil {
			return fmt.Errorf("failed to insert actor: %w", err)
		}

		return insertRevision(ctx, tx, actor, userID)
	})
}

func (r *postgresRepository) Update(ctx context.Context, actor *models.Actor, userID int64) error {
	actor.UpdatedAt = time.Now()

	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE actors SET
				name = $1, name_ar = $2, nickname = $3, nickname_ar = $4,
				first_name = $5, first_name_ar = $6, middle_name = $7,
				middle_name_ar = $8, last_name = $9, last_name_ar = $10,
				father_name = $11, father_name_ar = $12, mother_name = $13,
				mother_name_ar = $14, type = $15, sex = $16, age = $17,
				civilian = $18, occupation = $19, occupation_ar = $20,
				position = $21, position_ar = $22, family_status = $23,
				id_number = $24, residence_place_id = $25, origin_place_id = $26,
				status = $27, comments = $28, tags = $29, search = $30,
				updated_at = $31
			WHERE id = $32`

		result, err := tx.ExecContext(ctx, query,
			actor.Name, actor.NameAr, actor.Nickname, actor.NicknameAr,
			actor.FirstName, actor.FirstNameAr, actor.MiddleName, actor.MiddleNameAr,
			actor.LastName, actor.LastNameAr, actor.FatherName, actor.FatherNameAr,
			actor.MotherName, actor.MotherNameAr, actor.Type, actor.Sex,
			actor.Age, actor.Civilian, actor.Occupation, actor.OccupationAr,
			actor.Position, actor.PositionAr, actor.FamilyStatus, idNumberValue(actor.IDNumber),
			actor.ResidencePlaceID, actor.OriginPlaceID, actor.Status, actor.Comments,
			actor.Tags, searchText(actor), actor.UpdatedAt, actor.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update actor %d: %w", actor.ID, err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return searchErrors.ErrNotFound
		}

		return insertRevision(ctx, tx, actor, userID)
	})
}

func (r *postgresRepository) UpdateReview(ctx context.Context, id int64, review, reviewAction, status string, reviewerID int64) error {
	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE actors SET
				review = $1, review_action = $2, status = $3,
				first_peer_reviewer_id = COALESCE(first_peer_reviewer_id, $4),
				updated_at = $5
			WHERE id = $6`

		result, err := tx.ExecContext(ctx, query, review, reviewAction, status, reviewerID, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to review actor %d: %w", id, err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return searchErrors.ErrNotFound
		}

		var actor models.Actor
		sel := "SELECT " + actorColumns + " FROM actors t WHERE t.id = $1"
		if err := tx.GetContext(ctx, &actor, sel, id); err != nil {
			return fmt.Errorf("failed to reload actor %d: %w", id, err)
		}
		return insertRevision(ctx, tx, &actor, reviewerID)
	})
}

func (r *postgresRepository) Assign(ctx context.Context, id int64, userID int64, status string) error {
	query := `
		UPDATE actors SET assigned_to_id = $1, status = $2, updated_at = $3
		WHERE id = $4 AND assigned_to_id IS NULL`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, userID, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to assign actor %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return searchErrors.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Revisions(ctx context.Context, id int64, limit int) ([]models.Revision, error) {
	query := `
		SELECT id, actor_id, data, user_id, created_at
		FROM actor_history
		WHERE actor_id = $1
		ORDER BY id DESC
		LIMIT $2`

	var revisions []models.Revision
	if err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &revisions, query, id, limit); err != nil {
		return nil, fmt.Errorf("failed to load actor %d history: %w", id, err)
	}
	return revisions, nil
}

func insertRevision(ctx context.Context, tx *sqlx.Tx, actor *models.Actor, userID int64) error {
	snapshot, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("failed to snapshot actor %d: %w", actor.ID, err)
	}

	query := `
		INSERT INTO actor_history (actor_id, data, user_id, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, actor.ID, snapshot, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to insert actor %d revision: %w", actor.ID, err)
	}
	return nil
}

// idNumberValue normalises the JSONB column value: an absent list is stored
// as an empty array, not NULL, so containment queries stay simple.
func idNumberValue(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("[]")
	}
	return raw
}

// searchText materialises the denormalised search column.
func searchText(a *models.Actor) string {
	parts := []string{
		a.Name, a.NameAr, a.Nickname, a.NicknameAr,
		a.FirstName, a.FirstNameAr, a.MiddleName, a.MiddleNameAr,
		a.LastName, a.LastNameAr, a.FatherName, a.FatherNameAr,
		a.MotherName, a.MotherNameAr, a.Occupation, a.OccupationAr,
		a.Position, a.PositionAr, a.Comments,
	}
	return strings.Join(parts, " ")
}
