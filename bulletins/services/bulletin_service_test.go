package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	activityModels "github.com/daleel/api/activities/models"
	activityServices "github.com/daleel/api/activities/services"
	"github.com/daleel/api/bulletins/models"
	"github.com/daleel/api/internal/access"
	"github.com/daleel/api/internal/cache"
	"github.com/daleel/api/internal/types"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	searchModels "github.com/daleel/api/search/models"
	"github.com/daleel/api/search/paginator"
)

// MockBulletinRepository is a mock implementation of BulletinRepository
type MockBulletinRepository struct {
	mock.Mock
}

func (m *MockBulletinRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Bulletin, *int64, error) {
	args := m.Called(ctx, compiled, req)
	var total *int64
	if args.Get(1) != nil {
		total = args.Get(1).(*int64)
	}
	if args.Get(0) == nil {
		return nil, total, args.Error(2)
	}
	return args.Get(0).([]models.Bulletin), total, args.Error(2)
}

func (m *MockBulletinRepository) Count(ctx context.Context, compiled *compiler.Compiled) (int64, error) {
	args := m.Called(ctx, compiled)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBulletinRepository) FindByID(ctx context.Context, id int64) (*models.Bulletin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bulletin), args.Error(1)
}

func (m *MockBulletinRepository) Create(ctx context.Context, bulletin *models.Bulletin, userID int64) error {
	args := m.Called(ctx, bulletin, userID)
	return args.Error(0)
}

func (m *MockBulletinRepository) Update(ctx context.Context, bulletin *models.Bulletin, userID int64) error {
	args := m.Called(ctx, bulletin, userID)
	return args.Error(0)
}

func (m *MockBulletinRepository) UpdateReview(ctx context.Context, id int64, review, reviewAction, status string, reviewerID int64) error {
	args := m.Called(ctx, id, review, reviewAction, status, reviewerID)
	return args.Error(0)
}

func (m *MockBulletinRepository) Assign(ctx context.Context, id int64, userID int64, status string) error {
	args := m.Called(ctx, id, userID, status)
	return args.Error(0)
}

func (m *MockBulletinRepository) Revisions(ctx context.Context, id int64, limit int) ([]models.Revision, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Revision), args.Error(1)
}

// MockActivityRepository records inserted activities for assertions.
type MockActivityRepository struct {
	mock.Mock
	inserted []*activityModels.Activity
}

func (m *MockActivityRepository) Insert(ctx context.Context, activity *activityModels.Activity) error {
	m.inserted = append(m.inserted, activity)
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]activityModels.Activity, *int64, error) {
	args := m.Called(ctx, compiled, req)
	return nil, nil, args.Error(2)
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Notify(_ context.Context, event string, _ map[string]interface{}) {
	n.events = append(n.events, event)
}

type fixture struct {
	repo         *MockBulletinRepository
	activityRepo *MockActivityRepository
	notifier     *recordingNotifier
	svc          *BulletinService
}

func newFixture() *fixture {
	repo := new(MockBulletinRepository)
	activityRepo := new(MockActivityRepository)
	activityRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier := &recordingNotifier{}

	activity := activityServices.NewActivityService(activityRepo, []string{
		activityModels.ActionCreate, activityModels.ActionUpdate, activityModels.ActionReview,
		activityModels.ActionBulkUpdate, activityModels.ActionSearch, activityModels.ActionSelfAssign,
	})

	svc := NewBulletinService(repo, nil, nil, nil, activity, cache.NewService(nil), notifier)
	return &fixture{repo: repo, activityRepo: activityRepo, notifier: notifier, svc: svc}
}

func adminUser() *types.UserContext {
	return &types.UserContext{ID: 1, Username: "admin", RoleNames: []string{types.AdminRole}}
}

func plainUser(id int64) *types.UserContext {
	return &types.UserContext{ID: id, Username: "analyst", Roles: []int64{5}}
}

func TestSearchSerialisesRestrictedRows(t *testing.T) {
	f := newFixture()
	f.repo.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]models.Bulletin{
		{ID: 1},                      // no access groups: open
		{ID: 2, RoleIDs: []int64{5}}, // caller's group
		{ID: 3, RoleIDs: []int64{9}}, // foreign group
	}, nil, nil)

	result, err := f.svc.Search(context.Background(), plainUser(7),
		[]*searchModels.SearchQuery{{Tsv: "x"}}, paginator.Request{PerPage: 30})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)

	assert.IsType(t, &models.Bulletin{}, result.Items[0])
	assert.IsType(t, &models.Bulletin{}, result.Items[1])
	stub, ok := result.Items[2].(access.RestrictedStub)
	require.True(t, ok)
	assert.Equal(t, int64(3), stub.ID)
	assert.True(t, stub.Restricted)
	assert.Equal(t, []int64{1, 2, 3}, result.IDs)
}

func TestSearchSimpleListingUsesDirectCount(t *testing.T) {
	f := newFixture()
	// The data query on the simple path never carries the window count.
	f.repo.On("Search", mock.Anything, mock.Anything, mock.MatchedBy(func(r paginator.Request) bool {
		return !r.WantCount()
	})).Return([]models.Bulletin{{ID: 1}}, nil, nil)
	f.repo.On("Count", mock.Anything, mock.Anything).Return(int64(42), nil)

	result, err := f.svc.Search(context.Background(), adminUser(),
		[]*searchModels.SearchQuery{{}}, paginator.Request{PerPage: 30, IncludeCount: true})
	require.NoError(t, err)
	require.NotNil(t, result.Total)
	assert.Equal(t, int64(42), *result.Total)
	f.repo.AssertCalled(t, "Count", mock.Anything, mock.Anything)
}

func TestSearchFacetedCountSkipsDirectCount(t *testing.T) {
	f := newFixture()
	window := int64(7)
	f.repo.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]models.Bulletin{{ID: 1}}, &window, nil)

	result, err := f.svc.Search(context.Background(), adminUser(),
		[]*searchModels.SearchQuery{{Tsv: "x"}}, paginator.Request{PerPage: 30, IncludeCount: true})
	require.NoError(t, err)
	require.NotNil(t, result.Total)
	assert.Equal(t, int64(7), *result.Total)
	f.repo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
}

func TestSearchAuditsFacetedQueriesOnly(t *testing.T) {
	f := newFixture()
	f.repo.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]models.Bulletin{}, nil, nil)
	f.repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	_, err := f.svc.Search(context.Background(), adminUser(),
		[]*searchModels.SearchQuery{{}}, paginator.Request{PerPage: 30, IncludeCount: true})
	require.NoError(t, err)
	assert.Empty(t, f.activityRepo.inserted)

	_, err = f.svc.Search(context.Background(), adminUser(),
		[]*searchModels.SearchQuery{{Tsv: "x"}}, paginator.Request{PerPage: 30})
	require.NoError(t, err)
	require.Len(t, f.activityRepo.inserted, 1)
	assert.Equal(t, activityModels.ActionSearch, f.activityRepo.inserted[0].Action)
	assert.Equal(t, activityModels.StatusSuccess, f.activityRepo.inserted[0].Status)
}

func TestUpdateDeniedForUnassignedUser(t *testing.T) {
	f := newFixture()
	owner := int64(99)
	f.repo.On("FindByID", mock.Anything, int64(4)).Return(&models.Bulletin{ID: 4, AssignedToID: &owner}, nil)

	_, err := f.svc.Update(context.Background(), plainUser(7), 4, &models.UpdateBulletinRequest{})
	require.ErrorIs(t, err, searchErrors.ErrAccessDenied)

	// The denial is audited and escalated even though UPDATE succeeded checks.
	require.Len(t, f.activityRepo.inserted, 1)
	assert.Equal(t, activityModels.StatusDenied, f.activityRepo.inserted[0].Status)
	assert.Equal(t, []string{"UNAUTHORIZED_ACTION"}, f.notifier.events)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateAllowedForAssignedUser(t *testing.T) {
	f := newFixture()
	owner := int64(7)
	f.repo.On("FindByID", mock.Anything, int64(4)).Return(&models.Bulletin{ID: 4, AssignedToID: &owner}, nil)
	f.repo.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Bulletin) bool {
		return b.ID == 4 && b.Status == models.StatusUpdated
	}), int64(7)).Return(nil)

	_, err := f.svc.Update(context.Background(), plainUser(7), 4, &models.UpdateBulletinRequest{
		CreateBulletinRequest: models.CreateBulletinRequest{Title: "updated"},
	})
	require.NoError(t, err)
}

func TestSelfAssignRequiresCapability(t *testing.T) {
	f := newFixture()

	err := f.svc.SelfAssign(context.Background(), plainUser(7), 4)
	require.ErrorIs(t, err, searchErrors.ErrAccessDenied)
	f.repo.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSelfAssignWithCapability(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByID", mock.Anything, int64(4)).Return(&models.Bulletin{ID: 4}, nil)
	f.repo.On("Assign", mock.Anything, int64(4), int64(7), models.StatusAssigned).Return(nil)

	user := plainUser(7)
	user.CanSelfAssign = true
	require.NoError(t, f.svc.SelfAssign(context.Background(), user, 4))
}

func TestBulkUpdateRequiresElevatedRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.BulkUpdate(context.Background(), plainUser(7), &models.BulkUpdateRequest{Items: []int64{1}})
	require.ErrorIs(t, err, searchErrors.ErrAccessDenied)
}

func TestBulkUpdateReturnsJobID(t *testing.T) {
	f := newFixture()

	result, err := f.svc.BulkUpdate(context.Background(), adminUser(), &models.BulkUpdateRequest{Items: []int64{1, 2}})
	require.NoError(t, err)
	assert.NotEmpty(t, result.JobID)
}

func TestRevisionsHonoursHistoryCapabilities(t *testing.T) {
	f := newFixture()
	f.repo.On("Revisions", mock.Anything, int64(4), 10).Return([]models.Revision{}, nil)
	f.repo.On("Revisions", mock.Anything, int64(4), 1000).Return([]models.Revision{}, nil)

	user := plainUser(7)
	_, err := f.svc.Revisions(context.Background(), user, 4)
	require.ErrorIs(t, err, searchErrors.ErrAccessDenied)

	user.ViewSimpleHistory = true
	_, err = f.svc.Revisions(context.Background(), user, 4)
	require.NoError(t, err)
	f.repo.AssertCalled(t, "Revisions", mock.Anything, int64(4), 10)

	_, err = f.svc.Revisions(context.Background(), adminUser(), 4)
	require.NoError(t, err)
	f.repo.AssertCalled(t, "Revisions", mock.Anything, int64(4), 1000)
}
