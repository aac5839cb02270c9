package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/daleel/api/internal/pkg/log"
)

// Service wraps a Cache with JSON marshalling and well-known key schemes for
// the per-user ephemeral state the workflow endpoints keep in Redis.
type Service struct {
	cache   Cache
	enabled bool
}

// NewService creates a cache service over the given backend. A nil backend
// yields a disabled service whose operations are no-ops.
func NewService(cache Cache) *Service {
	return &Service{
		cache:   cache,
		enabled: cache != nil,
	}
}

// IsEnabled reports whether a backend is attached.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// GetJSON retrieves a JSON value into target. Returns ErrKeyNotFound on miss.
func (s *Service) GetJSON(ctx context.Context, key string, target interface{}) error {
	if !s.enabled {
		return ErrKeyNotFound
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal cached value for %s: %w", key, err)
	}
	return nil
}

// SetJSON stores a JSON-encoded value with the given TTL.
func (s *Service) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.enabled {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	return s.cache.Set(ctx, key, data, ttl)
}

// Delete removes a key.
func (s *Service) Delete(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	return s.cache.Delete(ctx, key)
}

// BulkJobKey is the per-user key holding pending bulk-operation job IDs.
func BulkJobKey(userID int64) string {
	return fmt.Sprintf("user%d:bulk", userID)
}

// ProcessKey is the per-user key holding in-flight OCR processing file IDs.
func ProcessKey(userID int64) string {
	return fmt.Sprintf("user%d:processing", userID)
}

// AddBulkJob records a queued bulk job for the user with the bulk-job TTL.
func (s *Service) AddBulkJob(ctx context.Context, userID int64, jobID string) {
	if !s.enabled {
		return
	}
	if err := s.cache.SetAdd(ctx, BulkJobKey(userID), jobID, BulkJobTTL); err != nil {
		log.Warn("failed to record bulk job %s for user %d: %v", jobID, userID, err)
	}
}

// HasBulkJob checks whether the job ID still belongs to the user.
func (s *Service) HasBulkJob(ctx context.Context, userID int64, jobID string) (bool, error) {
	if !s.enabled {
		return false, nil
	}
	return s.cache.SetIsMember(ctx, BulkJobKey(userID), jobID)
}

// Close closes the underlying backend.
func (s *Service) Close() error {
	if !s.enabled {
		return nil
	}
	return s.cache.Close()
}
