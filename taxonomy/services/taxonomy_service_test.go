package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daleel/api/taxonomy/models"
)

// MockTaxonomyRepository is a mock implementation of TaxonomyRepository
type MockTaxonomyRepository struct {
	mock.Mock
}

func (m *MockTaxonomyRepository) AllLabels(ctx context.Context) ([]models.Label, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Label), args.Error(1)
}

func (m *MockTaxonomyRepository) AllSources(ctx context.Context) ([]models.Source, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Source), args.Error(1)
}

func (m *MockTaxonomyRepository) AllEventtypes(ctx context.Context) ([]models.Eventtype, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Eventtype), args.Error(1)
}

func ptr(v int64) *int64 { return &v }

func seededRepo() *MockTaxonomyRepository {
	repo := new(MockTaxonomyRepository)
	// 1 -> {10, 11}, 10 -> {100}
	repo.On("AllLabels", mock.Anything).Return([]models.Label{
		{ID: 1},
		{ID: 2},
		{ID: 10, ParentID: ptr(1)},
		{ID: 11, ParentID: ptr(1)},
		{ID: 100, ParentID: ptr(10)},
	}, nil)
	repo.On("AllSources", mock.Anything).Return([]models.Source{
		{ID: 5},
		{ID: 50, ParentID: ptr(5)},
	}, nil)
	repo.On("AllEventtypes", mock.Anything).Return([]models.Eventtype{}, nil)
	return repo
}

func TestExpandLabelsDescendsTransitively(t *testing.T) {
	svc := NewTaxonomyService(seededRepo(), time.Minute)

	out, err := svc.ExpandLabels(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 10, 11, 100}, out)
}

func TestExpandLabelsLeaf(t *testing.T) {
	svc := NewTaxonomyService(seededRepo(), time.Minute)

	out, err := svc.ExpandLabels(context.Background(), []int64{2})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, out)
}

func TestExpandUnknownIDPassesThrough(t *testing.T) {
	svc := NewTaxonomyService(seededRepo(), time.Minute)

	out, err := svc.ExpandLabels(context.Background(), []int64{999})
	require.NoError(t, err)
	assert.Equal(t, []int64{999}, out)
}

func TestExpandSources(t *testing.T) {
	svc := NewTaxonomyService(seededRepo(), time.Minute)

	out, err := svc.ExpandSources(context.Background(), []int64{5})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{5, 50}, out)
}

func TestSnapshotIsCached(t *testing.T) {
	repo := seededRepo()
	svc := NewTaxonomyService(repo, time.Minute)

	ctx := context.Background()
	_, err := svc.ExpandLabels(ctx, []int64{1})
	require.NoError(t, err)
	_, err = svc.ExpandSources(ctx, []int64{5})
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "AllLabels", 1)
	repo.AssertNumberOfCalls(t, "AllSources", 1)
}

func TestInvalidateForcesReload(t *testing.T) {
	repo := seededRepo()
	svc := NewTaxonomyService(repo, time.Minute)

	ctx := context.Background()
	_, err := svc.ExpandLabels(ctx, []int64{1})
	require.NoError(t, err)

	svc.Invalidate()
	_, err = svc.ExpandLabels(ctx, []int64{1})
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "AllLabels", 2)
}

func TestLoadFailureWithoutSnapshotFails(t *testing.T) {
	repo := new(MockTaxonomyRepository)
	repo.On("AllLabels", mock.Anything).Return(nil, errors.New("db down"))

	svc := NewTaxonomyService(repo, time.Minute)
	_, err := svc.ExpandLabels(context.Background(), []int64{1})
	assert.Error(t, err)
}
