package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	activityModels "github.com/daleel/api/activities/models"
	activityServices "github.com/daleel/api/activities/services"
	"github.com/daleel/api/internal/cache"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/locations/models"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/search/paginator"
)

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Location, *int64, error) {
	args := m.Called(ctx, compiled, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]models.Location), nil, args.Error(2)
}

func (m *MockLocationRepository) Count(ctx context.Context, compiled *compiler.Compiled) (int64, error) {
	args := m.Called(ctx, compiled)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLocationRepository) FindByID(ctx context.Context, id int64) (*models.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockLocationRepository) Create(ctx context.Context, location *models.Location) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) Update(ctx context.Context, location *models.Location) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) RegenerateTree(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type nopActivityRepository struct{}

func (nopActivityRepository) Insert(context.Context, *activityModels.Activity) error { return nil }

func (nopActivityRepository) Search(context.Context, *compiler.Compiled, paginator.Request) ([]activityModels.Activity, *int64, error) {
	return nil, nil, nil
}

func newService(repo *MockLocationRepository) *LocationService {
	activity := activityServices.NewActivityService(nopActivityRepository{}, []string{
		activityModels.ActionCreate, activityModels.ActionUpdate, activityModels.ActionSearch,
	})
	return NewLocationService(repo, activity, cache.NewService(nil), nil)
}

func TestCreateRequiresEditCapability(t *testing.T) {
	repo := new(MockLocationRepository)
	svc := newService(repo)

	user := &types.UserContext{ID: 7, Username: "analyst"}
	_, err := svc.Create(context.Background(), user, &models.CreateLocationRequest{Title: "Aleppo"})
	require.ErrorIs(t, err, searchErrors.ErrAccessDenied)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateWithEditCapability(t *testing.T) {
	repo := new(MockLocationRepository)
	svc := newService(repo)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *models.Location) bool {
		return l.Title == "Aleppo" && l.ParentID == nil
	})).Return(nil)

	user := &types.UserContext{ID: 7, Username: "analyst", CanEditLocations: true}
	location, err := svc.Create(context.Background(), user, &models.CreateLocationRequest{Title: "Aleppo"})
	require.NoError(t, err)
	assert.Equal(t, "Aleppo", location.Title)
}

func TestRegenerateTreeAdminOnly(t *testing.T) {
	repo := new(MockLocationRepository)
	svc := newService(repo)

	user := &types.UserContext{ID: 7, Username: "analyst", CanEditLocations: true}
	_, err := svc.RegenerateTree(context.Background(), user)
	require.ErrorIs(t, err, searchErrors.ErrAccessDenied)

	repo.On("RegenerateTree", mock.Anything).Return(int64(120), nil)
	admin := &types.UserContext{ID: 1, Username: "admin", RoleNames: []string{types.AdminRole}}
	updated, err := svc.RegenerateTree(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(120), updated)
}
