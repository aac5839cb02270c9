package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/daleel/api/dynamicfields/models"
	"github.com/daleel/api/search/compiler"
)

// FieldRepository defines persistence for the dynamic-field registry. The
// mutating operations take a transaction because bulk-save commits every
// change of one envelope atomically.
type FieldRepository interface {
	List(ctx context.Context, filter models.ListFilter) ([]models.DynamicField, error)
	FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*models.DynamicField, error)
	Insert(ctx context.Context, tx *sqlx.Tx, field *models.DynamicField) error
	Update(ctx context.Context, tx *sqlx.Tx, field *models.DynamicField) error
	SoftDelete(ctx context.Context, tx *sqlx.Tx, id int64) error
	AddColumn(ctx context.Context, tx *sqlx.Tx, table, column, columnType string) error
	InsertSnapshot(ctx context.Context, tx *sqlx.Tx, snapshot *models.FormSnapshot) error
	ActiveFields(ctx context.Context, tx *sqlx.Tx, entityType string) ([]models.DynamicField, error)
	History(ctx context.Context, entityType string, limit, offset int) ([]models.FormSnapshot, error)
	SearchableFields(ctx context.Context, entityType string) (map[string]compiler.FieldDef, error)
}
