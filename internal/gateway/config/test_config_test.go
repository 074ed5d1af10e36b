package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "OASIS_STORE", "DATABASE_URL", "OASIS_SQLITE_PATH", "OASIS_STORE_URL",
		"OASIS_CACHE_TTL", "OASIS_CACHE_MAX_ENTRIES", "LLM_PROVIDER", "LLM_MODEL", "LLM_RETRY", "LLM_RPS",
		"GEMINI_API_KEY", "GROQ_API_KEY", "ARTIFACT_S3_ENDPOINT", "ARTIFACT_S3_ACCESS_KEY",
		"ARTIFACT_S3_SECRET_KEY", "ARTIFACT_MINIO_ENDPOINT", "MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg := FromEnv(":8081")

	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, ProviderFake, cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.Retry)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1024, cfg.Cache.MaxEntries)
	assert.Equal(t, 5, cfg.Limits.RadiusTopN)
	assert.Equal(t, "minio:9000", cfg.Store.S3.Endpoint)
	assert.False(t, cfg.Store.S3.UseSSL)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("OASIS_STORE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/oasis")
	t.Setenv("OASIS_CACHE_TTL", "30s")
	t.Setenv("LLM_PROVIDER", "groq")
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("LLM_RETRY", "0")

	cfg := FromEnv(":8081")
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 0, cfg.LLM.Retry)
	assert.Empty(t, cfg.Store.S3.Endpoint)
	assert.True(t, cfg.Store.S3.UseSSL)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, `unknown backend "redis"`},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }, "DATABASE_URL"},
		{"s3 without creds", func(c *Config) {
			c.Store.Backend = BackendS3
			c.Store.S3.AccessKey = ""
		}, "s3"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "openai" }, `unknown provider "openai"`},
		{"gemini without key", func(c *Config) { c.LLM.Provider = ProviderGemini }, "GEMINI_API_KEY"},
		{"negative retry", func(c *Config) { c.LLM.Retry = -1 }, "retry"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := FromEnv(":8081")
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestOverlayFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "oasis.yaml")
	doc := `
store:
  backend: SQLITE
  sqlite_path: /data/oasis.db
cache:
  ttl: 1m
llm:
  model: gemini-2.5-pro
limits:
  shadow_top_n: 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := FromEnv(":8081")
	require.NoError(t, cfg.OverlayFile(path))
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/data/oasis.db", cfg.Store.SQLitePath)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1024, cfg.Cache.MaxEntries)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, ProviderFake, cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.Limits.ShadowTopN)
	assert.Equal(t, 5, cfg.Limits.RadiusTopN)

	assert.Error(t, cfg.OverlayFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
