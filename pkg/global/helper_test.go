package global

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_SECONDS", "90")
	t.Setenv("TEST_DURATION", "2m")

	assert.Equal(t, 42, GetEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TEST_BAD_INT", 1))
	assert.Equal(t, 7, GetEnvInt("TEST_MISSING_INT", 7))
	assert.False(t, GetEnvBool("TEST_BOOL", true))
	assert.True(t, GetEnvBool("TEST_MISSING_BOOL", true))
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_SECONDS", time.Second))
	assert.Equal(t, 2*time.Minute, GetEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, "fallback", GetEnvOrDefault("TEST_MISSING", "fallback"))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg := LoadConfig()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 300*time.Second, cfg.Analysis.CacheTTL)
	assert.Equal(t, 100, cfg.Analysis.CacheMaxEntries)
	assert.True(t, cfg.Analysis.Parallel)
	assert.Equal(t, "gpt-35-turbo", cfg.AI.DeploymentName)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoadConfigCORSOrigins(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("CORS_ORIGINS", " https://app.example.com, ,https://admin.example.com ")

	cfg := LoadConfig()

	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}
