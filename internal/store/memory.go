package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/agentdesk-api/internal/cma"
)

// Memory keeps CMAs in process. It is used when no PG_DSN is configured
// and by handler tests; contents are lost on restart.
type Memory struct {
	mu   sync.Mutex
	now  func() time.Time
	rows map[string][]byte
}

var _ CMAs = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{now: time.Now, rows: map[string][]byte{}}
}

// Rows are stored encoded so callers never share slices with the store.
func (s *Memory) load(id string) (cma.CMA, bool) {
	raw, ok := s.rows[id]
	if !ok {
		return cma.CMA{}, false
	}
	var m cma.CMA
	if err := json.Unmarshal(raw, &m); err != nil {
		return cma.CMA{}, false
	}
	return m, true
}

func (s *Memory) save(m cma.CMA) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.rows[m.ID] = raw
	return nil
}

func (s *Memory) Create(_ context.Context, m *cma.CMA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := s.now().UTC()
	m.Version, m.CreatedAt, m.UpdatedAt = 1, now, now
	return s.save(*m)
}

func (s *Memory) Get(_ context.Context, id string) (cma.CMA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.load(id)
	if !ok {
		return cma.CMA{}, ErrNotFound
	}
	return m, nil
}

func (s *Memory) List(_ context.Context, limit, offset int) ([]cma.CMA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	all := make([]cma.CMA, 0, len(s.rows))
	for id := range s.rows {
		if m, ok := s.load(id); ok {
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID < all[j].ID
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []cma.CMA{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Memory) Update(_ context.Context, m *cma.CMA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.load(m.ID)
	if !ok {
		return ErrNotFound
	}
	if cur.Version != m.Version {
		return ErrVersionConflict
	}
	next := *m
	next.Version = cur.Version + 1
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now().UTC()
	if err := s.save(next); err != nil {
		return err
	}
	m.Version, m.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (s *Memory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}
