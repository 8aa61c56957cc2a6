package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_ENV", "PORT", "API_PREFIX", "BACKEND_CORS_ORIGINS", "LOG_LEVEL",
	"GROQ_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "HF_TOKEN", "HUGGINGFACEHUB_API_TOKEN",
	"LLM_FAKE", "LLM_TIMEOUT", "DATABASE_URL", "PROJECT_STORE_PG_DSN", "DATABASE_NAME",
	"ARTIFACT_S3_ENDPOINT", "ARTIFACT_MINIO_ENDPOINT", "ARTIFACT_S3_USE_SSL",
	"ARTIFACT_S3_ACCESS_KEY", "ARTIFACT_S3_SECRET_KEY", "MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD",
}

// clearEnv blanks every key Load reads so a developer .env cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.IsLocal())
	assert.Equal(t, DefaultAPIPrefix, cfg.APIPrefix)
	assert.Equal(t, DefaultDatabase, cfg.DatabaseName)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.Providers.Timeout)
	assert.Empty(t, cfg.Providers.GroqAPIKey)
	assert.False(t, cfg.Artifact.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("API_PREFIX", "api/v2/")
	t.Setenv("BACKEND_CORS_ORIGINS", "https://a.example.com/, https://b.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("LLM_TIMEOUT", "15")
	t.Setenv("PROJECT_STORE_PG_DSN", "postgres://x")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "s3.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Port)
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, "/api/v2", cfg.APIPrefix)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "g-key", cfg.Providers.GeminiAPIKey)
	assert.Equal(t, 15*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
	assert.True(t, cfg.Artifact.Enabled)
	assert.True(t, cfg.Artifact.UseSSL)

	assert.Equal(t, ":7000", cfg.WithPort("7000").Port)
	assert.Equal(t, ":9090", cfg.Port, "WithPort returns a copy")
}
