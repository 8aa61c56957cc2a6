package app

import (
	"context"
	"fmt"
	"log/slog"

	"nebula/internal/gateway/config"
	artifactrepo "nebula/internal/gateway/repository/artifact"
	"nebula/internal/gateway/repository/projectstore"
)

type gatewayStores struct {
	projects projectstore.Store
	exports  artifactrepo.Store
}

func initStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*gatewayStores, error) {
	projects, err := projectstore.Open(ctx, projectstore.Options{
		DSN:       cfg.DatabaseURL,
		Schema:    cfg.DatabaseName,
		Path:      cfg.StorePath,
		CacheSize: cfg.CacheSize,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}
	return &gatewayStores{
		projects: projects,
		exports:  chooseArtifactStore(cfg, log),
	}, nil
}

// chooseArtifactStore returns nil when exports are disabled. An S3 config
// that cannot be used falls back to memory so saves keep working.
func chooseArtifactStore(cfg config.Config, log *slog.Logger) artifactrepo.Store {
	if !cfg.Artifact.Enabled {
		return nil
	}
	s3Cfg := artifactrepo.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	}
	s3Store, err := artifactrepo.NewS3Store(s3Cfg)
	if err != nil {
		log.Warn("artifact store: using in-memory fallback", "error", err)
		return artifactrepo.NewMemoryStore()
	}
	log.Info("artifact store: s3", "bucket", s3Cfg.Bucket, "endpoint", s3Cfg.Endpoint)
	return s3Store
}

func (s *gatewayStores) Close() error {
	return s.projects.Close()
}
