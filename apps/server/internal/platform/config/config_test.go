package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/hgraph/apps/server/internal/platform/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.Default().Port, cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://lab:lab@db/hgraph")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("CORS_ORIGINS", "https://lab.example, https://ops.example")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://lab:lab@db/hgraph", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"https://lab.example", "https://ops.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.OTELEnabled)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REDIS_URL=redis://cache:6379/0\nPORT=7000\n"), 0o600))
	t.Setenv("PORT", "9090")
	// godotenv exports into the process; make sure the test leaves no trace.
	t.Setenv("REDIS_URL", "")
	require.NoError(t, os.Unsetenv("REDIS_URL"))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	_, err := config.Load("")
	assert.Error(t, err)
}
