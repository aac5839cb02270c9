package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/daleel/api/activities/models"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/search/compiler"
	"github.com/daleel/api/search/paginator"
)

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Insert(ctx context.Context, activity *models.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Activity, *int64, error) {
	args := m.Called(ctx, compiled, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]models.Activity), nil, args.Error(2)
}

func testUser() *types.UserContext {
	return &types.UserContext{ID: 7, Username: "analyst"}
}

func TestRegisterPersistsListedAction(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(a *models.Activity) bool {
		return a.Action == models.ActionUpdate && a.UserID == 7
	})).Return(nil)

	svc := NewActivityService(repo, []string{models.ActionUpdate})
	svc.RegisterSuccess(context.Background(), testUser(), models.ActionUpdate, "bulletin", models.Subject("bulletin", 1))

	repo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestRegisterDropsUnlistedAction(t *testing.T) {
	repo := new(MockActivityRepository)

	svc := NewActivityService(repo, []string{models.ActionUpdate})
	svc.RegisterSuccess(context.Background(), testUser(), models.ActionSearch, "bulletin", nil)

	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRegisterAlwaysPersistsDenials(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(a *models.Activity) bool {
		return a.Status == models.StatusDenied
	})).Return(nil)

	// ActionView is not in the configured list.
	svc := NewActivityService(repo, []string{models.ActionUpdate})
	svc.RegisterDenied(context.Background(), testUser(), models.ActionView, "bulletin", models.Subject("bulletin", 1))

	repo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestRegisterSwallowsInsertFailure(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewActivityService(repo, []string{models.ActionUpdate})
	assert.NotPanics(t, func() {
		svc.RegisterSuccess(context.Background(), testUser(), models.ActionUpdate, "bulletin", nil)
	})
}
