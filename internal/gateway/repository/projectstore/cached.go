package projectstore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore fronts a Store with an LRU of recently read projects.
// Listings always go to the backing store.
type CachedStore struct {
	base  Store
	cache *lru.Cache[string, Project]
}

func NewCached(base Store, size int) (*CachedStore, error) {
	if base == nil {
		return nil, fmt.Errorf("projectstore: cached store needs a backing store")
	}
	c, err := lru.New[string, Project](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{base: base, cache: c}, nil
}

func (s *CachedStore) Save(ctx context.Context, p Project) (string, error) {
	return s.base.Save(ctx, p)
}

func (s *CachedStore) ListByOwner(ctx context.Context, ownerEmail string) ([]Project, error) {
	return s.base.ListByOwner(ctx, ownerEmail)
}

func (s *CachedStore) Get(ctx context.Context, id string) (Project, error) {
	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}
	p, err := s.base.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	s.cache.Add(id, p)
	return p, nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	s.cache.Remove(id)
	return s.base.Delete(ctx, id)
}

func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.base.Close()
}
