package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "k")
	assert.True(t, IsMiss(err))
}

func TestMemorySetNX(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ok, err := m.SetNX(ctx, "lock", "1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = m.SetNX(ctx, "lock", "1", time.Second)
	assert.False(t, ok)
	require.NoError(t, m.Del(ctx, "lock"))
	ok, _ = m.SetNX(ctx, "lock", "1", time.Second)
	assert.True(t, ok)
}

func TestJSONEnvelope(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	env := Wrap([]string{"Austin", "Round Rock"}, now, 5*time.Minute, "homereview")
	require.NoError(t, SetJSON(ctx, m, "ac:cities:r", env, time.Hour))

	var got Envelope[[]string]
	require.NoError(t, GetJSON(ctx, m, "ac:cities:r", &got))
	assert.Equal(t, []string{"Austin", "Round Rock"}, got.Data)
	assert.False(t, got.Stale(now.Add(time.Minute)))
	assert.True(t, got.Stale(now.Add(6*time.Minute)))

	err := GetJSON(ctx, m, "absent", &got)
	assert.True(t, IsMiss(err))
}
