package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache is a minimal in-process Cache for unit tests.
type memoryCache struct {
	values map[string][]byte
	sets   map[string]map[string]bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		values: make(map[string][]byte),
		sets:   make(map[string]map[string]bool),
	}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memoryCache) SetAdd(_ context.Context, key, member string, _ time.Duration) error {
	if m.sets[key] == nil {
		m.sets[key] = make(map[string]bool)
	}
	m.sets[key][member] = true
	return nil
}

func (m *memoryCache) SetIsMember(_ context.Context, key, member string) (bool, error) {
	return m.sets[key][member], nil
}

func (m *memoryCache) Close() error { return nil }

func TestServiceJSONRoundTrip(t *testing.T) {
	svc := NewService(newMemoryCache())
	ctx := context.Background()

	type jobStatus struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}

	require.NoError(t, svc.SetJSON(ctx, "job:abc", jobStatus{ID: "abc", State: "pending"}, BulkJobTTL))

	var got jobStatus
	require.NoError(t, svc.GetJSON(ctx, "job:abc", &got))
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "pending", got.State)

	require.NoError(t, svc.Delete(ctx, "job:abc"))
	assert.ErrorIs(t, svc.GetJSON(ctx, "job:abc", &got), ErrKeyNotFound)
}

func TestServiceBulkJobMembership(t *testing.T) {
	svc := NewService(newMemoryCache())
	ctx := context.Background()

	svc.AddBulkJob(ctx, 7, "job-1")
	svc.AddBulkJob(ctx, 7, "job-2")

	ok, err := svc.HasBulkJob(ctx, 7, "job-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasBulkJob(ctx, 7, "job-9")
	require.NoError(t, err)
	assert.False(t, ok)

	// Different user never sees another user's jobs.
	ok, err = svc.HasBulkJob(ctx, 8, "job-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisabledServiceIsNoop(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.SetJSON(ctx, "k", "v", time.Minute))
	assert.ErrorIs(t, svc.GetJSON(ctx, "k", new(string)), ErrKeyNotFound)

	ok, err := svc.HasBulkJob(ctx, 1, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}
