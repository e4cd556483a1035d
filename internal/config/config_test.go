package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "REDIS_ADDR", "REDIS_DB", "CATALOG_CACHE_TTL", "HTTP_ADDR",
		"GOOGLE_CLOUD_LOCATION", "GOOGLE_SHEET_WORKSHEET", "OPENAI_MODEL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "us", cfg.GoogleCloudLocation)
	assert.Equal(t, "Collections", cfg.GoogleSheetWorksheet)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 10*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CATALOG_CACHE_TTL", "90s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.CatalogCacheTTL)
	assert.Equal(t, "json", cfg.GetLoggerConfig().Format)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_DB")

	t.Setenv("REDIS_DB", "")
	t.Setenv("CATALOG_CACHE_TTL", "ten minutes")
	_, err = Load()
	assert.ErrorContains(t, err, "CATALOG_CACHE_TTL")
}

func TestRequirements(t *testing.T) {
	cfg := &Config{}

	assert.EqualError(t, cfg.RequireDatabase(), "DATABASE_URL is required")
	assert.EqualError(t, cfg.RequireSheets(), "GOOGLE_SHEET_URL is required")
	assert.EqualError(t, cfg.RequireDocumentAI(), "GOOGLE_CLOUD_PROJECT is required")
	assert.EqualError(t, cfg.RequireOpenAI(), "OPENAI_API_KEY is required")

	cfg.GoogleSheetURL = "https://docs.google.com/spreadsheets/d/abc/edit"
	assert.ErrorContains(t, cfg.RequireSheets(), "GOOGLE_APPLICATION_CREDENTIALS")

	cfg.GoogleCredentialsFile = "/etc/frontdesk/key.json"
	cfg.DatabaseURL = "postgres://localhost/hospital"
	cfg.GoogleCloudProject = "hospital"
	cfg.DocumentAIProcessorID = "abc123"
	cfg.OpenAIAPIKey = "sk-test"

	assert.NoError(t, cfg.RequireDatabase())
	assert.NoError(t, cfg.RequireSheets())
	assert.NoError(t, cfg.RequireDocumentAI())
	assert.NoError(t, cfg.RequireOpenAI())
}
