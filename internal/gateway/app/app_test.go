package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebula/internal/gateway/config"
	"nebula/internal/gateway/repository/artifact"
	"nebula/internal/llm"
)

func TestNewWithoutProvidersOrDatabase(t *testing.T) {
	cfg := config.Config{
		Port:        ":0",
		Env:         "local",
		APIPrefix:   "/api/v1",
		LogLevel:    slog.LevelError,
		CacheSize:   8,
		ProjectName: "Nebula AI",
		Providers:   llm.ProviderSettings{Timeout: time.Second},
	}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, a.models.Configured())
	assert.Nil(t, a.stores.exports)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))
}

func TestOperationTimeoutCoversEveryProvider(t *testing.T) {
	perCall := 10 * time.Second
	assert.Equal(t, 40*time.Second, operationTimeout(perCall, 3))
	assert.Greater(t, operationTimeout(perCall, 3), 3*perCall, "the last fallback gets a full per-call window")
	assert.Equal(t, 20*time.Second, operationTimeout(perCall, 0))
	assert.Zero(t, operationTimeout(0, 3))
}

func TestChooseArtifactStoreFallsBack(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	cfg := config.Config{Artifact: config.ArtifactConfig{Enabled: true, Endpoint: "minio:9000", Bucket: "b"}}

	store := chooseArtifactStore(cfg, log)
	assert.IsType(t, &artifact.MemoryStore{}, store)

	cfg.Artifact.AccessKey, cfg.Artifact.SecretKey = "k", "s"
	assert.IsType(t, &artifact.S3Store{}, chooseArtifactStore(cfg, log))
}
