package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/criteria"
	"github.com/yourorg/agentdesk-api/provider"
)

var (
	ErrNotFound        = errors.New("cma not found")
	ErrVersionConflict = errors.New("cma was modified concurrently")
)

// CMAs is the persistence contract shared by the Postgres and in-memory
// stores.
type CMAs interface {
	Create(ctx context.Context, m *cma.CMA) error
	Get(ctx context.Context, id string) (cma.CMA, error)
	List(ctx context.Context, limit, offset int) ([]cma.CMA, error)
	// Update writes m if its Version still matches the stored row and
	// bumps m.Version on success.
	Update(ctx context.Context, m *cma.CMA) error
	Delete(ctx context.Context, id string) error
}

type Store struct{ DB *sql.DB }

var _ CMAs = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Close() error { return s.DB.Close() }

func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cmas (
            id           UUID PRIMARY KEY,
            name         TEXT NOT NULL DEFAULT '',
            name_mode    TEXT NOT NULL DEFAULT 'auto',
            criteria     JSONB NOT NULL DEFAULT '{}'::jsonb,
            subject      JSONB,
            comparables  JSONB NOT NULL DEFAULT '[]'::jsonb,
            brochure     JSONB,
            version      INTEGER NOT NULL DEFAULT 1,
            created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_cmas_updated ON cmas(updated_at DESC);`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// row holds the JSON-encoded columns of one CMA.
type row struct {
	criteria    []byte
	subject     []byte
	comparables []byte
	brochure    []byte
}

func encode(m *cma.CMA) (row, error) {
	var r row
	var err error
	if r.criteria, err = json.Marshal(m.Criteria); err != nil {
		return r, err
	}
	if m.Subject != nil {
		if r.subject, err = json.Marshal(m.Subject); err != nil {
			return r, err
		}
	}
	items := m.Items
	if items == nil {
		items = []provider.Property{}
	}
	if r.comparables, err = json.Marshal(items); err != nil {
		return r, err
	}
	if m.Brochure != nil {
		if r.brochure, err = json.Marshal(m.Brochure); err != nil {
			return r, err
		}
	}
	return r, nil
}

func (r row) decode(m *cma.CMA) error {
	var c criteria.Criteria
	if len(r.criteria) > 0 {
		if err := json.Unmarshal(r.criteria, &c); err != nil {
			return fmt.Errorf("criteria: %w", err)
		}
	}
	m.Criteria = c
	m.Subject = nil
	if len(r.subject) > 0 && string(r.subject) != "null" {
		var p provider.Property
		if err := json.Unmarshal(r.subject, &p); err != nil {
			return fmt.Errorf("subject: %w", err)
		}
		m.Subject = &p
	}
	m.Items = []provider.Property{}
	if len(r.comparables) > 0 {
		if err := json.Unmarshal(r.comparables, &m.Items); err != nil {
			return fmt.Errorf("comparables: %w", err)
		}
	}
	m.Brochure = nil
	if len(r.brochure) > 0 && string(r.brochure) != "null" {
		var b cma.Brochure
		if err := json.Unmarshal(r.brochure, &b); err != nil {
			return fmt.Errorf("brochure: %w", err)
		}
		m.Brochure = &b
	}
	return nil
}

func nullJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// Create assigns an id when m has none and stores m at version 1.
func (s *Store) Create(ctx context.Context, m *cma.CMA) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r, err := encode(m)
	if err != nil {
		return err
	}
	return s.DB.QueryRowContext(ctx, `
        INSERT INTO cmas (id, name, name_mode, criteria, subject, comparables, brochure, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,1)
        RETURNING version, created_at, updated_at`,
		m.ID, m.Name, m.NameMode.String(), string(r.criteria), nullJSON(r.subject), string(r.comparables), nullJSON(r.brochure),
	).Scan(&m.Version, &m.CreatedAt, &m.UpdatedAt)
}

const selectCMA = `SELECT id, name, name_mode, criteria, subject, comparables, brochure, version, created_at, updated_at FROM cmas`

type scanner interface {
	Scan(dest ...any) error
}

func scanCMA(sc scanner) (cma.CMA, error) {
	var m cma.CMA
	var r row
	if err := sc.Scan(&m.ID, &m.Name, &m.NameMode, &r.criteria, &r.subject, &r.comparables, &r.brochure, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return m, err
	}
	if err := r.decode(&m); err != nil {
		return m, fmt.Errorf("cma %s: %w", m.ID, err)
	}
	return m, nil
}

func (s *Store) Get(ctx context.Context, id string) (cma.CMA, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cma.CMA{}, ErrNotFound
	}
	m, err := scanCMA(s.DB.QueryRowContext(ctx, selectCMA+` WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return cma.CMA{}, ErrNotFound
	}
	return m, err
}

// List returns CMAs most recently updated first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]cma.CMA, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.DB.QueryContext(ctx, selectCMA+` ORDER BY updated_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []cma.CMA{}
	for rows.Next() {
		m, err := scanCMA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, m *cma.CMA) (err error) {
	r, err := encode(m)
	if err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
        UPDATE cmas SET name=$3, name_mode=$4, criteria=$5, subject=$6, comparables=$7, brochure=$8,
            version=version+1, updated_at=now()
        WHERE id=$1 AND version=$2
        RETURNING version, updated_at`,
		m.ID, m.Version, m.Name, m.NameMode.String(), string(r.criteria), nullJSON(r.subject), string(r.comparables), nullJSON(r.brochure),
	).Scan(&m.Version, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if qerr := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cmas WHERE id=$1)`, m.ID).Scan(&exists); qerr != nil {
			return qerr
		}
		if exists {
			return ErrVersionConflict
		}
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM cmas WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
