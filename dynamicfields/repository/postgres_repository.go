package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/daleel/api/dynamicfields/models"
	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
)

const fieldColumns = `id, name, title, entity_type, field_type, schema_config,
	ui_config, options, searchable, active, deleted, core, sort_order,
	created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var sortColumns = map[string]string{
	"sort_order": "sort_order",
	"title":      "title",
	"created_at": "created_at",
	"id":         "id",
}

// postgresRepository implements FieldRepository using raw SQL queries
type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a new PostgreSQL repository for dynamic fields
func NewPostgresRepository(client *postgres.Client) FieldRepository {
	return &postgresRepository{client: client}
}

// List builds the filtered listing with squirrel. Deleted fields are hidden
// unless explicitly requested.
func (r *postgresRepository) List(ctx context.Context, filter models.ListFilter) ([]models.DynamicField, error) {
	builder := psql.Select(fieldColumns).From("dynamic_fields")

	if filter.EntityType != "" {
		builder = builder.Where(sq.Eq{"entity_type": filter.EntityType})
	}
	if filter.FieldType != "" {
		builder = builder.Where(sq.Eq{"field_type": filter.FieldType})
	}
	if filter.Active != nil {
		builder = builder.Where(sq.Eq{"active": *filter.Active})
	}
	if filter.Searchable != nil {
		builder = builder.Where(sq.Eq{"searchable": *filter.Searchable})
	}
	if filter.Core != nil {
		builder = builder.Where(sq.Eq{"core": *filter.Core})
	}
	if filter.Deleted != nil {
		builder = builder.Where(sq.Eq{"deleted": *filter.Deleted})
	} else {
		builder = builder.Where(sq.Eq{"deleted": false})
	}

	order := "sort_order"
	if col, ok := sortColumns[filter.Sort]; ok {
		order = col
	}
	builder = builder.OrderBy(order+" ASC", "id ASC")

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build field listing: %w", err)
	}

	var fields []models.DynamicField
	if err := sqlx.SelectContext(ctx, r.client.DB(), &fields, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list dynamic fields: %w", err)
	}
	return fields, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*models.DynamicField, error) {
	query := "SELECT " + fieldColumns + " FROM dynamic_fields WHERE id = $1 FOR UPDATE"

	var field models.DynamicField
	err := tx.GetContext(ctx, &field, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, searchErrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dynamic field %d: %w", id, err)
	}
	return &field, nil
}

func (r *postgresRepository) Insert(ctx context.Context, tx *sqlx.Tx, field *models.DynamicField) error {
	now := time.Now()
	field.CreatedAt = now
	field.UpdatedAt = now

	query := `
		INSERT INTO dynamic_fields (
			name, title, entity_type, field_type, schema_config, ui_config,
			options, searchable, active, deleted, core, sort_order,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, false, $10, $11, $12)
		RETURNING id`

	err := tx.QueryRowxContext(ctx, query,
		field.Name, field.Title, field.EntityType, field.FieldType,
		rawOrNull(field.SchemaConfig), rawOrNull(field.UIConfig), field.Options,
		field.Searchable, field.Active, field.SortOrder,
		field.CreatedAt, field.UpdatedAt,
	).Scan(&field.ID)
	if err != nil {
		return fmt.Errorf("failed to insert dynamic field: %w", err)
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, tx *sqlx.Tx, field *models.DynamicField) error {
	field.UpdatedAt = time.Now()

	query := `
		UPDATE dynamic_fields SET
			title = $1, schema_config = $2, ui_config = $3, options = $4,
			searchable = $5, active = $6, deleted = $7, sort_order = $8,
			updated_at = $9
		WHERE id = $10`

	result, err := tx.ExecContext(ctx, query,
		field.Title, rawOrNull(field.SchemaConfig), rawOrNull(field.UIConfig),
		field.Options, field.Searchable, field.Active, field.Deleted,
		field.SortOrder, field.UpdatedAt, field.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dynamic field %d: %w", field.ID, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return searchErrors.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) SoftDelete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	query := "UPDATE dynamic_fields SET active = false, deleted = true, updated_at = $1 WHERE id = $2"
	result, err := tx.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete dynamic field %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return searchErrors.ErrNotFound
	}
	return nil
}

// AddColumn extends the live entity table. The column name comes from the
// server-side generator, never the client, so it is safe to interpolate.
func (r *postgresRepository) AddColumn(ctx context.Context, tx *sqlx.Tx, table, column, columnType string) error {
	ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", table, column, columnType)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}

func (r *postgresRepository) InsertSnapshot(ctx context.Context, tx *sqlx.Tx, snapshot *models.FormSnapshot) error {
	snapshot.CreatedAt = time.Now()

	query := `
		INSERT INTO dynamic_field_history (entity_type, fields, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := tx.QueryRowxContext(ctx, query,
		snapshot.EntityType, snapshot.Fields, snapshot.UserID, snapshot.CreatedAt,
	).Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to insert form snapshot: %w", err)
	}
	return nil
}

func (r *postgresRepository) ActiveFields(ctx context.Context, tx *sqlx.Tx, entityType string) ([]models.DynamicField, error) {
	query := "SELECT " + fieldColumns + ` FROM dynamic_fields
		WHERE entity_type = $1 AND deleted = false
		ORDER BY sort_order ASC, id ASC`

	var fields []models.DynamicField
	if err := tx.SelectContext(ctx, &fields, query, entityType); err != nil {
		return nil, fmt.Errorf("failed to load %s fields: %w", entityType, err)
	}
	return fields, nil
}

func (r *postgresRepository) History(ctx context.Context, entityType string, limit, offset int) ([]models.FormSnapshot, error) {
	query := `
		SELECT id, entity_type, fields, user_id, created_at
		FROM dynamic_field_history
		WHERE entity_type = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`

	var snapshots []models.FormSnapshot
	if err := sqlx.SelectContext(ctx, r.client.DB(), &snapshots, query, entityType, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to load %s form history: %w", entityType, err)
	}
	return snapshots, nil
}

// SearchableFields loads the registry subset the query compiler consults.
// Soft-deleted and inactive fields never reach compilation.
func (r *postgresRepository) SearchableFields(ctx context.Context, entityType string) (map[string]compiler.FieldDef, error) {
	query := `
		SELECT name, field_type FROM dynamic_fields
		WHERE entity_type = $1 AND searchable = true AND active = true AND deleted = false`

	var rows []struct {
		Name      string `db:"name"`
		FieldType string `db:"field_type"`
	}
	if err := sqlx.SelectContext(ctx, r.client.DB(), &rows, query, entityType); err != nil {
		return nil, fmt.Errorf("failed to load searchable %s fields: %w", entityType, err)
	}

	fields := make(map[string]compiler.FieldDef, len(rows))
	for _, row := range rows {
		fields[row.Name] = compiler.FieldDef{Name: row.Name, FieldType: row.FieldType}
	}
	return fields, nil
}

func rawOrNull(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
