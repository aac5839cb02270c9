package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	activityModels "github.com/daleel/api/activities/models"
	activityServices "github.com/daleel/api/activities/services"
	"github.com/daleel/api/dynamicfields/models"
	"github.com/daleel/api/dynamicfields/repository"
	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
)

const entityClass = "dynamic_field"

// FieldService implements the dynamic-field registry. Mutations arrive as
// one bulk envelope per request; every change of the envelope commits or
// rolls back together, followed by exactly one form-history snapshot.
type FieldService struct {
	client   *postgres.Client
	repo     repository.FieldRepository
	activity *activityServices.ActivityService
}

// NewFieldService creates a new dynamic-field service
func NewFieldService(client *postgres.Client, repo repository.FieldRepository, activity *activityServices.ActivityService) *FieldService {
	return &FieldService{client: client, repo: repo, activity: activity}
}

// List returns registry rows matching the filter.
func (s *FieldService) List(ctx context.Context, filter models.ListFilter) ([]models.DynamicField, error) {
	if filter.EntityType != "" {
		if _, ok := models.EntityTypes[filter.EntityType]; !ok {
			return nil, searchErrors.NewQueryError("entity_type", "unknown entity type")
		}
	}
	return s.repo.List(ctx, filter)
}

// History returns the form snapshots of an entity type, newest first.
func (s *FieldService) History(ctx context.Context, entityType string, page, perPage int) ([]models.FormSnapshot, error) {
	if _, ok := models.EntityTypes[entityType]; !ok {
		return nil, searchErrors.NewQueryError("entity_type", "unknown entity type")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 30
	}
	return s.repo.History(ctx, entityType, perPage, (page-1)*perPage)
}

// SearchableFields implements the compiler's field source.
func (s *FieldService) SearchableFields(ctx context.Context, entityType string) (map[string]compiler.FieldDef, error) {
	return s.repo.SearchableFields(ctx, entityType)
}

// BulkSave applies one change envelope in a single transaction: creates add
// the live column, updates respect the immutables, deletes are soft. Admin
// only.
func (s *FieldService) BulkSave(ctx context.Context, user *types.UserContext, req *models.BulkSaveRequest) error {
	if !user.IsAdmin() {
		s.activity.RegisterDenied(ctx, user, activityModels.ActionUpdate, entityClass, nil)
		return searchErrors.ErrAccessDenied
	}

	table, ok := models.EntityTypes[req.EntityType]
	if !ok {
		return searchErrors.NewQueryError("entity_type", "unknown entity type")
	}

	err := s.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		for i := range req.Changes.Create {
			if err := s.applyCreate(ctx, tx, req.EntityType, table, &req.Changes.Create[i], fmt.Sprintf("changes.create[%d]", i)); err != nil {
				return err
			}
		}
		for i := range req.Changes.Update {
			if err := s.applyUpdate(ctx, tx, &req.Changes.Update[i], fmt.Sprintf("changes.update[%d]", i)); err != nil {
				return err
			}
		}
		for _, id := range req.Changes.Delete {
			if err := s.repo.SoftDelete(ctx, tx, id); err != nil {
				return err
			}
		}

		return s.snapshot(ctx, tx, req.EntityType, user.ID)
	})
	if err != nil {
		return err
	}

	s.activity.RegisterSuccess(ctx, user, activityModels.ActionUpdate, entityClass, activityModels.Subject(req.EntityType+"_form", 0))
	return nil
}

func (s *FieldService) applyCreate(ctx context.Context, tx *sqlx.Tx, entityType, table string, input *models.CreateFieldInput, path string) error {
	field := &models.DynamicField{
		Name:         generateName(),
		Title:        input.Title,
		EntityType:   entityType,
		FieldType:    input.FieldType,
		SchemaConfig: input.SchemaConfig,
		UIConfig:     input.UIConfig,
		Options:      input.Options,
		Searchable:   input.Searchable,
		Active:       input.Active,
		SortOrder:    input.SortOrder,
	}
	field.AssignOptionIDs()
	if err := field.Validate(); err != nil {
		return searchErrors.NewQueryError(path, err.Error())
	}

	if err := s.repo.Insert(ctx, tx, field); err != nil {
		return err
	}
	return s.repo.AddColumn(ctx, tx, table, field.Name, field.ColumnType())
}

func (s *FieldService) applyUpdate(ctx context.Context, tx *sqlx.Tx, input *models.UpdateFieldInput, path string) error {
	existing, err := s.repo.FindByID(ctx, tx, input.ID)
	if err != nil {
		return err
	}

	if input.Name != "" && input.Name != existing.Name {
		return searchErrors.NewQueryError(path, "field name is immutable")
	}
	if input.FieldType != "" && input.FieldType != existing.FieldType {
		return searchErrors.NewQueryError(path, "field type is immutable")
	}

	if existing.Core {
		// Core fields expose only presentation knobs.
		existing.Title = input.Title
		existing.Active = input.Active
		existing.SortOrder = input.SortOrder
	} else {
		if err := checkMaxLengthImmutable(existing, input.SchemaConfig); err != nil {
			return searchErrors.NewQueryError(path, err.Error())
		}
		existing.Title = input.Title
		existing.SchemaConfig = input.SchemaConfig
		existing.UIConfig = input.UIConfig
		existing.Options = input.Options
		existing.Searchable = input.Searchable
		existing.Active = input.Active
		existing.SortOrder = input.SortOrder
	}

	// Reactivation restores a soft-deleted field without any migration.
	if input.Active {
		existing.Deleted = false
	}

	existing.AssignOptionIDs()
	if err := existing.Validate(); err != nil {
		return searchErrors.NewQueryError(path, err.Error())
	}
	return s.repo.Update(ctx, tx, existing)
}

func (s *FieldService) snapshot(ctx context.Context, tx *sqlx.Tx, entityType string, userID int64) error {
	fields, err := s.repo.ActiveFields(ctx, tx, entityType)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to serialise form snapshot: %w", err)
	}
	return s.repo.InsertSnapshot(ctx, tx, &models.FormSnapshot{
		EntityType: entityType,
		Fields:     data,
		UserID:     userID,
	})
}

func checkMaxLengthImmutable(existing *models.DynamicField, newConfig json.RawMessage) error {
	if existing.FieldType != models.TypeText && existing.FieldType != models.TypeLongText {
		return nil
	}
	old := existing.MaxLength()
	candidate := &models.DynamicField{FieldType: existing.FieldType, SchemaConfig: newConfig}
	next := candidate.MaxLength()

	switch {
	case old == nil && next == nil:
		return nil
	case old != nil && next != nil && *old == *next:
		return nil
	default:
		return fmt.Errorf("max_length is immutable for text fields")
	}
}

// generateName produces the immutable column identifier. The scheme stays
// inside [a-z0-9_], which the query compiler's identifier barrier accepts.
func generateName() string {
	buf := make([]byte, 3)
	rand.Read(buf)
	return fmt.Sprintf("field_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
