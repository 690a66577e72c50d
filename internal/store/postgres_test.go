package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/criteria"
	"github.com/yourorg/agentdesk-api/provider"
)

func TestRowRoundTrip(t *testing.T) {
	lat, lon := 30.5, -97.7
	pool := true
	in := cma.CMA{
		Criteria: criteria.Criteria{
			Statuses:     []criteria.Status{criteria.StatusActive, criteria.StatusClosed},
			MinBeds:      "3",
			Subdivisions: "Brushy Creek",
			Pool:         &pool,
		},
		Brochure: &cma.Brochure{
			Filename:   "flyer.pdf",
			URL:        "https://files.example.com/flyer.pdf",
			Type:       cma.BrochurePDF,
			UploadedAt: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		},
	}
	in.SetSubject(provider.Property{ID: "s1", Address: "1 Main St", Lat: &lat, Lon: &lon}, cma.DefaultLimits)
	in.Add(provider.Property{ID: "c1", ListPrice: 400000, Status: criteria.StatusClosed, ClosePrice: 395000}, cma.DefaultLimits)

	r, err := encode(&in)
	require.NoError(t, err)

	var out cma.CMA
	require.NoError(t, r.decode(&out))
	assert.Equal(t, in.Criteria, out.Criteria)
	require.NotNil(t, out.Subject)
	assert.Equal(t, *in.Subject, *out.Subject)
	assert.Equal(t, in.Items, out.Items)
	require.NotNil(t, out.Brochure)
	assert.Equal(t, *in.Brochure, *out.Brochure)
}

func TestRowEmptyColumns(t *testing.T) {
	r, err := encode(&cma.CMA{})
	require.NoError(t, err)
	assert.Nil(t, r.subject)
	assert.Nil(t, r.brochure)
	assert.JSONEq(t, `[]`, string(r.comparables))
	assert.Nil(t, nullJSON(r.subject))

	// Columns read back as JSON null clear any previous value.
	stale := cma.CMA{Brochure: &cma.Brochure{Filename: "old.pdf"}}
	stale.SetSubject(provider.Property{ID: "old"}, cma.DefaultLimits)
	require.NoError(t, row{subject: []byte("null"), brochure: []byte("null")}.decode(&stale))
	assert.Nil(t, stale.Subject)
	assert.Nil(t, stale.Brochure)
	assert.NotNil(t, stale.Items)
	assert.Empty(t, stale.Items)
}

func TestRowDecodeReportsBadColumn(t *testing.T) {
	var m cma.CMA
	err := row{comparables: []byte(`{"not":"a list"}`)}.decode(&m)
	assert.ErrorContains(t, err, "comparables")
}

func TestStoreRejectsMalformedIDs(t *testing.T) {
	// Non-uuid ids never reach the database.
	s := &Store{}
	_, err := s.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), "not-a-uuid"), ErrNotFound)
}
