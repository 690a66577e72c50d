package cma

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/agentdesk-api/internal/criteria"
	"github.com/yourorg/agentdesk-api/provider"
)

func prop(id string, list, closePrice, area float64, status criteria.Status) provider.Property {
	return provider.Property{ID: id, ListPrice: list, ClosePrice: closePrice, LivingArea: area, Status: status}
}

func TestSummarizeKnownSet(t *testing.T) {
	props := []provider.Property{
		prop("a", 300000, 0, 1000, criteria.StatusActive),
		prop("b", 400000, 0, 1000, criteria.StatusActive),
		prop("c", 500000, 0, 1000, criteria.StatusActive),
	}
	s, ok := Summarize(props)
	require.True(t, ok)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 400000, s.AveragePrice, 1e-9)
	assert.InDelta(t, 1000, s.AverageArea, 1e-9)
	assert.InDelta(t, 400, s.AveragePricePerArea, 1e-9)
	assert.Equal(t, PriceRange{Min: 300000, Max: 500000}, s.PriceRange)
}

func TestSummarizeEmptyIsNotOK(t *testing.T) {
	_, ok := Summarize(nil)
	assert.False(t, ok)
}

func TestResolvedPrice(t *testing.T) {
	assert.Equal(t, 410000.0, ResolvedPrice(prop("a", 400000, 410000, 0, criteria.StatusClosed)))
	assert.Equal(t, 400000.0, ResolvedPrice(prop("a", 400000, 0, 0, criteria.StatusClosed)))
	assert.Equal(t, 400000.0, ResolvedPrice(prop("a", 400000, 410000, 0, criteria.StatusActive)))
	assert.Equal(t, 0.0, ResolvedPrice(provider.Property{}))
}

func TestAveragePricePerAreaIsMeanOfRatios(t *testing.T) {
	props := []provider.Property{
		prop("a", 100000, 0, 1000, criteria.StatusActive), // 100/sqft
		prop("b", 300000, 0, 1000, criteria.StatusActive), // 300/sqft
		prop("c", 200000, 0, 0, criteria.StatusActive),    // area clamps to 1
	}
	s, ok := Summarize(props)
	require.True(t, ok)
	assert.InDelta(t, (100.0+300.0+200000.0)/3, s.AveragePricePerArea, 1e-6)
	assert.InDelta(t, 2000.0/3, s.AverageArea, 1e-9)
}

func TestAddThenRemoveRestoresSummary(t *testing.T) {
	set := Comparables{}
	for i, price := range []float64{250000, 325000, 410000} {
		require.True(t, set.Add(prop(fmt.Sprint(i), price, 0, 1200+float64(i)*100, criteria.StatusActive), DefaultLimits))
	}
	before, _ := set.Summary()
	ids := []string{"0", "1", "2"}

	require.True(t, set.Add(prop("x", 990000, 1000000, 4000, criteria.StatusClosed), DefaultLimits))
	require.True(t, set.Remove("x"))

	after, ok := set.Summary()
	require.True(t, ok)
	assert.Equal(t, before, after)
	for i, p := range set.Items {
		assert.Equal(t, ids[i], p.ID)
	}
}

func TestAddDuplicateOrOverCapIsNoop(t *testing.T) {
	lim := Limits{MaxComparables: 2}
	set := Comparables{}
	require.True(t, set.Add(prop("a", 1, 0, 1, ""), lim))
	assert.False(t, set.Add(prop("a", 2, 0, 1, ""), lim))
	require.True(t, set.Add(prop("b", 1, 0, 1, ""), lim))
	assert.False(t, set.Add(prop("c", 1, 0, 1, ""), lim))
	assert.False(t, set.Add(provider.Property{}, Limits{MaxComparables: 10}))

	require.Len(t, set.Items, 2)
	assert.Equal(t, "a", set.Items[0].ID)
	assert.Equal(t, 1.0, set.Items[0].ListPrice)
	assert.Equal(t, "b", set.Items[1].ID)
}

func TestSixComparableVariant(t *testing.T) {
	lim := Limits{MaxComparables: 6}
	set := Comparables{}
	for i := 0; i < 8; i++ {
		set.Add(prop(fmt.Sprint(i), 1, 0, 1, ""), lim)
	}
	assert.Len(t, set.Items, 6)
}

func TestSubjectVariants(t *testing.T) {
	subject := prop("s", 500000, 0, 2000, criteria.StatusActive)

	apart := Comparables{}
	apart.Add(subject, DefaultLimits)
	apart.SetSubject(subject, DefaultLimits)
	assert.False(t, apart.Contains("s"), "setting subject evicts it from comparables")
	assert.False(t, apart.Add(subject, DefaultLimits))

	shared := Limits{MaxComparables: 6, SubjectInComparables: true}
	both := Comparables{}
	both.SetSubject(subject, shared)
	assert.True(t, both.Add(subject, shared))
	assert.Equal(t, "s", both.Subject.ID)

	both.ClearSubject()
	assert.Nil(t, both.Subject)
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	set := Comparables{}
	set.Add(prop("a", 1, 0, 1, ""), DefaultLimits)
	assert.False(t, set.Remove("zzz"))
	assert.Len(t, set.Items, 1)
}

func fixedNamer() Namer {
	return Namer{Now: func() time.Time { return time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC) }}
}

func TestGenerateName(t *testing.T) {
	n := fixedNamer()
	cases := []struct {
		c    criteria.Criteria
		want string
	}{
		{criteria.Criteria{}, "Custom Search CMA - Mar 4, 2026 3:30 PM"},
		{criteria.Criteria{Cities: " Austin, Buda"}, "Austin CMA - Mar 4, 2026 3:30 PM"},
		{
			criteria.Criteria{Cities: "Austin", Subdivisions: "Tarrytown", Statuses: []criteria.Status{criteria.StatusClosed, criteria.StatusUnderContract}},
			"Tarrytown CMA - Under Contract, Closed - Mar 4, 2026 3:30 PM",
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, n.Generate(tc.c))
	}
}

func TestNameLatchSurvivesCriteriaChanges(t *testing.T) {
	n := fixedNamer()
	m := New(criteria.Criteria{Cities: "Austin"}, nil, n)
	assert.Equal(t, NameAuto, m.NameMode)
	assert.Equal(t, "Austin CMA - Mar 4, 2026 3:30 PM", m.Name)

	m.UpdateCriteria(criteria.Criteria{Cities: "Buda"}, n)
	assert.Equal(t, "Buda CMA - Mar 4, 2026 3:30 PM", m.Name)

	m.Rename("")
	assert.Equal(t, NameManual, m.NameMode)
	m.UpdateCriteria(criteria.Criteria{Cities: "Kyle"}, n)
	assert.Equal(t, "", m.Name)
	assert.Equal(t, NameManual, m.NameMode)

	empty := ""
	m2 := New(criteria.Criteria{Cities: "Austin"}, &empty, n)
	assert.Equal(t, NameManual, m2.NameMode)
	assert.Equal(t, "", m2.Name)
}

func TestNameModeJSON(t *testing.T) {
	b, err := json.Marshal(struct{ M NameMode }{NameManual})
	require.NoError(t, err)
	assert.JSONEq(t, `{"M":"manual"}`, string(b))

	var m NameMode
	require.NoError(t, json.Unmarshal([]byte(`"manual"`), &m))
	assert.Equal(t, NameManual, m)
}

func TestDetectBrochureType(t *testing.T) {
	cases := []struct {
		name, ct string
		want     BrochureType
		ok       bool
	}{
		{"flyer.pdf", "", BrochurePDF, true},
		{"x", "application/pdf", BrochurePDF, true},
		{"front.JPG", "application/octet-stream", BrochureImage, true},
		{"x", "image/png; charset=binary", BrochureImage, true},
		{"notes.docx", "application/msword", "", false},
	}
	for _, tc := range cases {
		got, ok := DetectBrochureType(tc.name, tc.ct)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestBrochureFilename(t *testing.T) {
	assert.Equal(t, "austin-cma-active-oct-15-2026-9-00-am.pdf", BrochureFilename("Austin CMA - Active - Oct 15, 2026 9:00 AM"))
	assert.Equal(t, "cma-brochure.pdf", BrochureFilename("  "))
	assert.Equal(t, "cma-brochure.pdf", BrochureFilename("!!!"))
}
