package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/api", cfg.Server.BaseRoute)
	assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
	assert.Equal(t, 30, cfg.Search.DefaultPerPage)
	assert.Equal(t, 100, cfg.Search.MaxPerPage)
	assert.Contains(t, cfg.Activity.Actions, "SEARCH")
	assert.Contains(t, cfg.Activity.Actions, "SELF-ASSIGN")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SEARCH_DEFAULT_PER_PAGE", "10")
	t.Setenv("SEARCH_MAX_PER_PAGE", "50")
	t.Setenv("ACTIVITIES_LIST", "SEARCH, VIEW ,UPDATE")
	t.Setenv("CACHE_TTL", "2h")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Search.DefaultPerPage)
	assert.Equal(t, 50, cfg.Search.MaxPerPage)
	assert.Equal(t, []string{"SEARCH", "VIEW", "UPDATE"}, cfg.Activity.Actions)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
}

func TestValidateRejectsBadPagination(t *testing.T) {
	t.Setenv("SEARCH_DEFAULT_PER_PAGE", "100")
	t.Setenv("SEARCH_MAX_PER_PAGE", "10")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "per-page")
}
