package services

import (
	"context"

	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/savedsearches/models"
	"github.com/daleel/api/savedsearches/repository"
	searchErrors "github.com/daleel/api/search/errors"
)

var validEntityTypes = map[string]bool{
	"bulletin": true,
	"actor":    true,
	"incident": true,
}

// SavedSearchService stores and retrieves per-user query envelopes. The
// envelope is kept verbatim; facet validation happens when it is replayed
// against a search endpoint, so a legacy envelope saves fine and fails loudly
// on use.
type SavedSearchService struct {
	repo repository.SavedSearchRepository
}

// NewSavedSearchService creates a new saved search service
func NewSavedSearchService(repo repository.SavedSearchRepository) *SavedSearchService {
	return &SavedSearchService{repo: repo}
}

// List returns the caller's saved searches, optionally filtered by entity type.
func (s *SavedSearchService) List(ctx context.Context, user *types.UserContext, entityType string) ([]models.SavedSearch, error) {
	if entityType != "" && !validEntityTypes[entityType] {
		return nil, searchErrors.NewQueryError("type", "unknown entity type")
	}
	return s.repo.ListByUser(ctx, user.ID, entityType)
}

// Exists reports whether the caller already has a saved search by that name.
func (s *SavedSearchService) Exists(ctx context.Context, user *types.UserContext, name string) (bool, error) {
	return s.repo.ExistsByName(ctx, user.ID, name)
}

// Create stores a new saved search. Names are unique per user.
func (s *SavedSearchService) Create(ctx context.Context, user *types.UserContext, req *models.SaveRequest) (*models.SavedSearch, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByName(ctx, user.ID, req.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, searchErrors.ErrConflict
	}

	search := &models.SavedSearch{
		Name:       req.Name,
		EntityType: req.EntityType,
		Query:      req.Query,
		UserID:     user.ID,
	}
	if err := s.repo.Create(ctx, search); err != nil {
		return nil, err
	}
	return search, nil
}

// Update rewrites an existing saved search owned by the caller.
func (s *SavedSearchService) Update(ctx context.Context, user *types.UserContext, id int64, req *models.SaveRequest) (*models.SavedSearch, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.EntityType = req.EntityType
	existing.Query = req.Query
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a saved search owned by the caller.
func (s *SavedSearchService) Delete(ctx context.Context, user *types.UserContext, id int64) error {
	return s.repo.Delete(ctx, user.ID, id)
}

func validate(req *models.SaveRequest) error {
	if req.Name == "" {
		return searchErrors.NewQueryError("name", "name is required")
	}
	if !validEntityTypes[req.EntityType] {
		return searchErrors.NewQueryError("query_type", "unknown entity type")
	}
	return nil
}
