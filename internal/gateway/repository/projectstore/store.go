package projectstore

import (
	"context"
	"log/slog"
	"strings"

	"nebula/internal/apperr"
)

// ErrNotFound is returned by Get and Delete for unknown ids.
var ErrNotFound = apperr.NotFound("projectstore", "project not found")

// Store persists projects. Ids are UUID strings assigned by Save.
type Store interface {
	Save(ctx context.Context, p Project) (string, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]Project, error)
	Get(ctx context.Context, id string) (Project, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type Options struct {
	// DSN selects Postgres when set.
	DSN string
	// Schema is the Postgres schema holding the projects table.
	Schema string
	// Path persists the fallback store to a JSON file; empty keeps it in memory.
	Path      string
	CacheSize int
	Logger    *slog.Logger
}

// Open returns the Postgres store when a DSN is configured and reachable,
// otherwise the file store. Either is fronted by an LRU read cache.
func Open(ctx context.Context, opts Options) (Store, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	var base Store
	if dsn := strings.TrimSpace(opts.DSN); dsn != "" {
		pg, err := NewPostgres(ctx, dsn, opts.Schema)
		if err != nil {
			log.WarnContext(ctx, "postgres project store unavailable; using file store", "error", err, "path", opts.Path)
		} else {
			log.InfoContext(ctx, "project store: postgres", "schema", pg.schema)
			base = pg
		}
	}
	if base == nil {
		fs, err := NewFileStore(opts.Path)
		if err != nil {
			return nil, err
		}
		if opts.Path == "" {
			log.InfoContext(ctx, "project store: memory")
		} else {
			log.InfoContext(ctx, "project store: file", "path", opts.Path)
		}
		base = fs
	}
	if opts.CacheSize <= 0 {
		return base, nil
	}
	return NewCached(base, opts.CacheSize)
}
