package projectstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"nebula/internal/apperr"
)

const (
	projectsTable = "projects"
	// DefaultSchema matches DATABASE_NAME's default.
	DefaultSchema = "nebula_db"
)

var (
	identPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)
	projectColumns = []string{"id", "owner_email", "name", "description", "nodes", "edges", "terraform_code", "cost_estimate", "created_at"}
)

// PostgresStore keeps projects in one table with the diagram in JSONB columns.
type PostgresStore struct {
	db     *sql.DB
	schema string
	now    func() time.Time

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgres(ctx context.Context, dsn, schema string) (*PostgresStore, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = DefaultSchema
	}
	if !identPattern.MatchString(schema) {
		return nil, fmt.Errorf("projectstore: invalid schema name %q", schema)
	}
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &PostgresStore{db: db, schema: schema, now: time.Now}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, schemaDDL(s.schema))
	})
	return s.schemaErr
}

func schemaDDL(schema string) string {
	return fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %[1]q;

CREATE TABLE IF NOT EXISTS %[1]q.%[2]q (
  id UUID PRIMARY KEY,
  owner_email TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  nodes JSONB NOT NULL DEFAULT '[]'::jsonb,
  edges JSONB NOT NULL DEFAULT '[]'::jsonb,
  terraform_code TEXT NOT NULL DEFAULT '',
  cost_estimate TEXT NOT NULL DEFAULT 'Calculating...',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_projects_owner_created ON %[1]q.%[2]q (owner_email, created_at DESC);
`, schema, projectsTable)
}

func (s *PostgresStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

func (s *PostgresStore) insertQuery(p Project) (string, []any, error) {
	nodes, err := json.Marshal(p.Nodes)
	if err != nil {
		return "", nil, err
	}
	edges, err := json.Marshal(p.Edges)
	if err != nil {
		return "", nil, err
	}
	q, args := s.builder().Insert(projectsTable).Schema(s.schema).
		Columns(projectColumns...).
		Values(p.ID, p.OwnerEmail, p.Name, p.Description, string(nodes), string(edges), p.TerraformCode, p.CostEstimate, p.CreatedAt).
		Query()
	return q, args, nil
}

func (s *PostgresStore) listQuery(owner string) (string, []any) {
	b := s.builder()
	return b.Select(projectColumns...).
		From(b.Table(projectsTable).Schema(s.schema)).
		Where(entsql.EQ("owner_email", owner)).
		OrderBy(entsql.Desc("created_at")).
		Limit(ListLimit).
		Query()
}

func (s *PostgresStore) getQuery(id string) (string, []any) {
	b := s.builder()
	return b.Select(projectColumns...).
		From(b.Table(projectsTable).Schema(s.schema)).
		Where(entsql.EQ("id", id)).
		Query()
}

func (s *PostgresStore) deleteQuery(id string) (string, []any) {
	return s.builder().Delete(projectsTable).Schema(s.schema).
		Where(entsql.EQ("id", id)).
		Query()
}

func (s *PostgresStore) Save(ctx context.Context, p Project) (string, error) {
	const op = "projectstore.save"
	if err := s.ensureSchema(ctx); err != nil {
		return "", apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	p = normalizeProject(p, s.now)
	p.ID = uuid.NewString()
	q, args, err := s.insertQuery(p)
	if err != nil {
		return "", apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return "", apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	return p.ID, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerEmail string) ([]Project, error) {
	const op = "projectstore.list"
	if err := s.ensureSchema(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	q, args := s.listQuery(strings.TrimSpace(ownerEmail))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	defer rows.Close()

	out := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindStorageFailure, op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Project, error) {
	const op = "projectstore.get"
	if err := s.ensureSchema(ctx); err != nil {
		return Project{}, apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	q, args := s.getQuery(strings.TrimSpace(id))
	p, err := scanProject(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const op = "projectstore.delete"
	if err := s.ensureSchema(ctx); err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	q, args := s.deleteQuery(strings.TrimSpace(id))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func scanProject(row rowScanner) (Project, error) {
	var (
		p            Project
		nodes, edges []byte
	)
	if err := row.Scan(&p.ID, &p.OwnerEmail, &p.Name, &p.Description, &nodes, &edges, &p.TerraformCode, &p.CostEstimate, &p.CreatedAt); err != nil {
		return Project{}, err
	}
	if err := json.Unmarshal(nodes, &p.Nodes); err != nil {
		return Project{}, fmt.Errorf("decode nodes of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(edges, &p.Edges); err != nil {
		return Project{}, fmt.Errorf("decode edges of %s: %w", p.ID, err)
	}
	return normalizeProject(p, nil), nil
}
