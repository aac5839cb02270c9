package cache

import (
	"context"
	"errors"
	"time"
)

// Cache defines the generic key-value interface backing ephemeral state:
// bulk-job status entries, OCR processing sets, graph output.
type Cache interface {
	// Get retrieves a value from cache by key
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache by key
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// SetAdd adds a member to a set stored at key
	SetAdd(ctx context.Context, key string, member string, ttl time.Duration) error

	// SetIsMember checks set membership
	SetIsMember(ctx context.Context, key string, member string) (bool, error)

	// Close closes the cache connection
	Close() error
}

// Well-known TTLs for ephemeral per-user state.
const (
	BulkJobTTL = 3 * time.Hour
	ProcessTTL = 2 * time.Hour
)

// Cache errors
var (
	ErrKeyNotFound      = errors.New("cache: key not found")
	ErrCacheUnavailable = errors.New("cache: backend unavailable")
)

// Config holds configuration for the Redis-backed store
type Config struct {
	Enabled      bool
	Prefix       string
	Address      string
	Password     string
	Database     int
	PoolSize     int
	MinIdleConns int
	MaxConnAge   time.Duration
}
