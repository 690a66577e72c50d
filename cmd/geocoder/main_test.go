package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/events"
	"github.com/yourorg/agentdesk-api/internal/geocode"
	"github.com/yourorg/agentdesk-api/internal/store"
	"github.com/yourorg/agentdesk-api/provider"
)

type stubGeocoder struct{ calls int }

func (s *stubGeocoder) Geocode(context.Context, string) (geocode.Point, error) {
	s.calls++
	return geocode.Point{Lat: 30.5, Lon: -97.6}, nil
}

func TestPassGeocodesEveryStoredCMA(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	for i := 0; i < 3; i++ {
		m := cma.CMA{Name: fmt.Sprintf("cma %d", i)}
		m.Add(provider.Property{ID: fmt.Sprintf("p%d", i), Address: fmt.Sprintf("%d Oak Ln", i+1), City: "Austin", State: "TX"}, cma.DefaultLimits)
		require.NoError(t, st.Create(ctx, &m))
	}
	ev := events.NewInMemory(8)
	g := &stubGeocoder{}
	job := &backfill{store: st, batch: geocode.NewBatcher(g, nil, geocode.Options{}), pub: ev, log: logrus.WithField("test", t.Name())}

	require.NoError(t, job.pass(ctx))
	assert.Equal(t, 3, g.calls)
	all, err := st.List(ctx, 10, 0)
	require.NoError(t, err)
	for _, m := range all {
		assert.True(t, m.Items[0].HasCoords(), m.Name)
		assert.Equal(t, 2, m.Version)
	}
	assert.Len(t, ev.Subscribe(), 3)

	// Nothing left to do on the second pass.
	require.NoError(t, job.pass(ctx))
	assert.Equal(t, 3, g.calls)
}
