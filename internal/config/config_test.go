package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendMemory)
	t.Setenv("IDEMPOTENCY_TTL", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendMemory)
	t.Setenv("UNIQUE_ID_PREFIX", "AST")
	t.Setenv("IDEMPOTENCY_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "AST", cfg.UniqueIDPrefix)
	assert.Equal(t, 90*time.Second, cfg.IdempotencyTTL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_BACKEND", BackendMemory)
	t.Setenv("REQUEST_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}
