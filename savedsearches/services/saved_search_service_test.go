package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/savedsearches/models"
	searchErrors "github.com/daleel/api/search/errors"
)

type MockSavedSearchRepository struct {
	mock.Mock
}

func (m *MockSavedSearchRepository) ListByUser(ctx context.Context, userID int64, entityType string) ([]models.SavedSearch, error) {
	args := m.Called(ctx, userID, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedSearch), args.Error(1)
}

func (m *MockSavedSearchRepository) FindByID(ctx context.Context, userID, id int64) (*models.SavedSearch, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedSearch), args.Error(1)
}

func (m *MockSavedSearchRepository) ExistsByName(ctx context.Context, userID int64, name string) (bool, error) {
	args := m.Called(ctx, userID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockSavedSearchRepository) Create(ctx context.Context, search *models.SavedSearch) error {
	args := m.Called(ctx, search)
	return args.Error(0)
}

func (m *MockSavedSearchRepository) Update(ctx context.Context, search *models.SavedSearch) error {
	args := m.Called(ctx, search)
	return args.Error(0)
}

func (m *MockSavedSearchRepository) Delete(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func user() *types.UserContext {
	return &types.UserContext{ID: 7, Username: "analyst"}
}

func TestCreateStoresEnvelopeVerbatim(t *testing.T) {
	repo := new(MockSavedSearchRepository)
	svc := NewSavedSearchService(repo)

	envelope := json.RawMessage(`[{"tsv":"detention","op":"and"},{"tags":["urgent"]}]`)
	repo.On("ExistsByName", mock.Anything, int64(7), "detention sweep").Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *models.SavedSearch) bool {
		return s.UserID == 7 && string(s.Query) == string(envelope)
	})).Return(nil)

	search, err := svc.Create(context.Background(), user(), &models.SaveRequest{
		Name:       "detention sweep",
		EntityType: "bulletin",
		Query:      envelope,
	})
	require.NoError(t, err)
	assert.JSONEq(t, string(envelope), string(search.Query))
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	repo := new(MockSavedSearchRepository)
	svc := NewSavedSearchService(repo)
	repo.On("ExistsByName", mock.Anything, int64(7), "taken").Return(true, nil)

	_, err := svc.Create(context.Background(), user(), &models.SaveRequest{
		Name:       "taken",
		EntityType: "actor",
		Query:      json.RawMessage(`{}`),
	})
	require.ErrorIs(t, err, searchErrors.ErrConflict)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateValidation(t *testing.T) {
	repo := new(MockSavedSearchRepository)
	svc := NewSavedSearchService(repo)

	_, err := svc.Create(context.Background(), user(), &models.SaveRequest{EntityType: "bulletin"})
	require.ErrorIs(t, err, searchErrors.ErrInvalidQuery)

	_, err = svc.Create(context.Background(), user(), &models.SaveRequest{Name: "x", EntityType: "report"})
	require.ErrorIs(t, err, searchErrors.ErrInvalidQuery)
}

func TestListRejectsUnknownType(t *testing.T) {
	repo := new(MockSavedSearchRepository)
	svc := NewSavedSearchService(repo)

	_, err := svc.List(context.Background(), user(), "report")
	require.ErrorIs(t, err, searchErrors.ErrInvalidQuery)

	repo.On("ListByUser", mock.Anything, int64(7), "incident").Return([]models.SavedSearch{}, nil)
	_, err = svc.List(context.Background(), user(), "incident")
	require.NoError(t, err)
}
