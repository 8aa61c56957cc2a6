package projectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nebula/internal/apperr"
)

// FileStore keeps projects in memory and, when path is set, mirrors them to
// a JSON file after every write.
type FileStore struct {
	path string
	now  func() time.Time

	mu   sync.RWMutex
	byID map[string]Project
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: strings.TrimSpace(path),
		now:  time.Now,
		byID: make(map[string]Project),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	if s.path == "" {
		return nil
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "projectstore.load", err)
	}
	var rows []Project
	if err := json.Unmarshal(b, &rows); err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "projectstore.load", fmt.Errorf("%s: %w", s.path, err))
	}
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		s.byID[row.ID] = normalizeProject(row, nil)
	}
	return nil
}

// flush must be called with s.mu held.
func (s *FileStore) flush() error {
	if s.path == "" {
		return nil
	}
	rows := make([]Project, 0, len(s.byID))
	for _, p := range s.byID {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Save(_ context.Context, p Project) (string, error) {
	p = normalizeProject(p, s.now)
	p.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = p
	if err := s.flush(); err != nil {
		delete(s.byID, p.ID)
		return "", apperr.Wrap(apperr.KindStorageFailure, "projectstore.save", err)
	}
	return p.ID, nil
}

func (s *FileStore) ListByOwner(_ context.Context, ownerEmail string) ([]Project, error) {
	owner := strings.TrimSpace(ownerEmail)
	s.mu.RLock()
	out := make([]Project, 0)
	for _, p := range s.byID {
		if p.OwnerEmail == owner {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > ListLimit {
		out = out[:ListLimit]
	}
	return out, nil
}

func (s *FileStore) Get(_ context.Context, id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	if err := s.flush(); err != nil {
		s.byID[id] = p
		return apperr.Wrap(apperr.KindStorageFailure, "projectstore.delete", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
