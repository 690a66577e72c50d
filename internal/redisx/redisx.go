package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get for an absent or expired key.
var ErrMiss = redis.Nil

// KV is the slice of Redis the caches need.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, val string, ttl time.Duration) error
	SetNX(ctx context.Context, key string, val string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

type Client struct{ Rdb *redis.Client }

var _ KV = (*Client)(nil)

func New(addr string, password string, db int) *Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &Client{Rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Rdb.Ping(ctx).Err()
}

func (c *Client) Close() error { return c.Rdb.Close() }

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.Rdb.Get(ctx, key).Result()
}

func (c *Client) Set(ctx context.Context, key string, val string, ttl time.Duration) error {
	return c.Rdb.Set(ctx, key, val, ttl).Err()
}

func (c *Client) SetNX(ctx context.Context, key string, val string, ttl time.Duration) (bool, error) {
	return c.Rdb.SetNX(ctx, key, val, ttl).Result()
}

func (c *Client) Del(ctx context.Context, key string) error {
	return c.Rdb.Del(ctx, key).Err()
}

// Memory is an in-process KV used when REDIS_ADDR is unset, and in tests.
type Memory struct {
	mu   sync.Mutex
	now  func() time.Time
	data map[string]memEntry
}

type memEntry struct {
	val     string
	expires time.Time
}

var _ KV = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{now: time.Now, data: map[string]memEntry{}}
}

func (m *Memory) live(key string) (memEntry, bool) {
	e, ok := m.data[key]
	if !ok {
		return e, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, key)
		return e, false
	}
	return e, true
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return "", ErrMiss
	}
	return e.val, nil
}

func (m *Memory) put(key, val string, ttl time.Duration) {
	e := memEntry{val: val}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[key] = e
}

func (m *Memory) Set(_ context.Context, key string, val string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, val, ttl)
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, val string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(key); ok {
		return false, nil
	}
	m.put(key, val, ttl)
	return true, nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// GetJSON decodes the value at key into out. A miss returns ErrMiss.
func GetJSON(ctx context.Context, kv KV, key string, out any) error {
	val, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if val == "" {
		return ErrMiss
	}
	return json.Unmarshal([]byte(val), out)
}

func SetJSON(ctx context.Context, kv KV, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, string(b), ttl)
}

// Envelope is the stale-while-revalidate wrapper stored under cache keys.
// Entries outlive StaleAfter until their Redis TTL; stale reads are served
// while a refresh runs in the background.
type Envelope[T any] struct {
	Data       T         `json:"data"`
	FetchedAt  time.Time `json:"fetched_at"`
	StaleAfter time.Time `json:"stale_after"`
	Source     string    `json:"source,omitempty"`
}

func (e Envelope[T]) Stale(now time.Time) bool { return now.After(e.StaleAfter) }

// Wrap stamps data with a fetch time and a staleness deadline.
func Wrap[T any](data T, now time.Time, staleAfter time.Duration, source string) Envelope[T] {
	return Envelope[T]{Data: data, FetchedAt: now, StaleAfter: now.Add(staleAfter), Source: source}
}

// IsMiss reports whether err is a cache miss rather than a backend failure.
func IsMiss(err error) bool { return errors.Is(err, ErrMiss) }
