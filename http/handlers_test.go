package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/agentdesk-api/fub"
	"github.com/yourorg/agentdesk-api/internal/calendar"
	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/criteria"
	"github.com/yourorg/agentdesk-api/internal/events"
	"github.com/yourorg/agentdesk-api/internal/geocode"
	"github.com/yourorg/agentdesk-api/internal/health"
	"github.com/yourorg/agentdesk-api/internal/store"
	"github.com/yourorg/agentdesk-api/internal/suggest"
	"github.com/yourorg/agentdesk-api/internal/uploads"
	"github.com/yourorg/agentdesk-api/provider"
)

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("content-type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

// --- search ---

type fakeSearcher struct {
	got  criteria.Criteria
	page provider.Page
	res  provider.Result
	err  error
}

func (f *fakeSearcher) ID() provider.ID { return provider.MLSGrid }

func (f *fakeSearcher) Search(_ context.Context, c criteria.Criteria, p provider.Page) (provider.Result, error) {
	f.got, f.page = c, p
	return f.res, f.err
}

func TestSearchGetBuildsCriteriaFromQuery(t *testing.T) {
	s := &fakeSearcher{res: provider.Result{
		Properties: []provider.Property{{ID: "a", ListPrice: 450000}},
		Total:      1,
		Source:     "mlsgrid",
	}}
	r := chi.NewRouter()
	RegisterSearch(r, SearchDeps{Provider: s})

	rec, body := do(t, r, http.MethodGet, "/search?statusActive=true&minBeds=3&maxPrice=500000&subdivision=any&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []criteria.Status{criteria.StatusActive}, s.got.StatusSet())
	assert.Equal(t, []criteria.Constraint{{Field: criteria.MaxPrice, Value: "500000"}, {Field: criteria.MinBeds, Value: "3"}}, s.got.Scalars())
	assert.Equal(t, provider.Page{Number: 2, Limit: 40}, s.page)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "mlsgrid", body["provider"])
}

func TestSearchPostAcceptsStatusFlags(t *testing.T) {
	s := &fakeSearcher{}
	r := chi.NewRouter()
	RegisterSearch(r, SearchDeps{Provider: s})

	rec, _ := do(t, r, http.MethodPost, "/search", map[string]any{"statusActive": true, "minBeds": 3, "maxPrice": 500000, "subdivisions": "any", "page": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []criteria.Status{criteria.StatusActive}, s.got.StatusSet())
	assert.Equal(t, []criteria.Constraint{{Field: criteria.MaxPrice, Value: "500000"}, {Field: criteria.MinBeds, Value: "3"}}, s.got.Scalars())
	assert.Empty(t, s.got.Lists())
	assert.Equal(t, provider.Page{Number: 2, Limit: 40}, s.page)
}

func TestCMACriteriaAcceptsStatusFlags(t *testing.T) {
	h, _, _ := newCMARouter(t)
	_, body := do(t, h, http.MethodPost, "/cmas", map[string]any{"criteria": map[string]any{"cities": "Leander", "statusClosed": true}})
	m := cmaOf(t, body)
	assert.Equal(t, "Leander CMA - Closed - Oct 15, 2026 9:30 AM", m["name"])

	rec, body := do(t, h, http.MethodPatch, "/cmas/"+m["id"].(string), map[string]any{"criteria": map[string]any{"cities": "Leander", "statusActive": "true"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Leander CMA - Active - Oct 15, 2026 9:30 AM", cmaOf(t, body)["name"])
}

func TestSearchPostAndUpstreamFailure(t *testing.T) {
	s := &fakeSearcher{err: &provider.UpstreamError{Provider: "mlsgrid", Status: 503}}
	r := chi.NewRouter()
	RegisterSearch(r, SearchDeps{Provider: s})

	rec, body := do(t, r, http.MethodPost, "/search", map[string]any{"cities": "Austin, Round Rock", "limit": 10})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream_error", body["error"])
	assert.True(t, strings.HasPrefix(body["detail"].(string), "unable to search"))
	assert.Equal(t, criteria.Value("Austin, Round Rock"), s.got.Cities)
	assert.Equal(t, 10, s.page.Limit)

	rec, body = do(t, r, http.MethodPost, "/search", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", body["error"])

	rec, body = do(t, r, http.MethodPost, "/search", map[string]any{"limit": 5000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["error"])
	assert.Contains(t, body["detail"], "limit")
}

// --- autocomplete ---

type fakeSuggester struct{}

func (fakeSuggester) Lookup(_ context.Context, field, prefix string) ([]string, string, error) {
	if _, err := suggest.NormalizeField(field); err != nil {
		return nil, "", err
	}
	return []string{strings.ToUpper(prefix) + "-1"}, "fresh", nil
}

func TestAutocomplete(t *testing.T) {
	r := chi.NewRouter()
	RegisterAutocomplete(r, AutocompleteDeps{Suggest: fakeSuggester{}})

	rec, body := do(t, r, http.MethodGet, "/autocomplete/cities?q=au", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"AU-1"}, body["suggestions"])

	rec, body = do(t, r, http.MethodGet, "/autocomplete/minPrice?q=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_field", body["error"])
}

// --- cmas ---

type fakeUploader struct {
	calls int
}

func (f *fakeUploader) Configured() bool { return true }

func (f *fakeUploader) Upload(_ context.Context, cmaID, filename, contentType string, body []byte) (cma.Brochure, error) {
	f.calls++
	kind, ok := cma.DetectBrochureType(filename, contentType)
	if !ok {
		return cma.Brochure{}, uploads.ErrUnsupportedType
	}
	if strings.Contains(filename, "flaky") {
		return cma.Brochure{}, errors.New("failed to upload: storage error 500")
	}
	return cma.Brochure{Filename: filename, URL: "https://files/" + cmaID + "/" + filename, Type: kind, UploadedAt: time.Now()}, nil
}

func newCMARouter(t *testing.T) (http.Handler, *events.InMemory, *fakeUploader) {
	t.Helper()
	ev := events.NewInMemory(64)
	up := &fakeUploader{}
	r := chi.NewRouter()
	RegisterCMAs(r, CMADeps{
		Store:    store.NewMemory(),
		Namer:    cma.Namer{Now: func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }, Loc: time.UTC},
		Limits:   cma.Limits{MaxComparables: 2},
		Events:   ev,
		Uploader: up,
	})
	return r, ev, up
}

func cmaOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	m, ok := body["cma"].(map[string]any)
	require.True(t, ok, "response has a cma: %v", body)
	return m
}

func TestCMALifecycle(t *testing.T) {
	h, ev, _ := newCMARouter(t)

	rec, body := do(t, h, http.MethodPost, "/cmas", map[string]any{
		"criteria": map[string]any{"subdivisions": "Brushy Creek", "statuses": []string{"Closed", "Active"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := cmaOf(t, body)
	id := m["id"].(string)
	assert.Equal(t, "Brushy Creek CMA - Active, Closed - Oct 15, 2026 9:30 AM", m["name"])
	assert.Equal(t, "auto", m["nameMode"])
	assert.Equal(t, "created", (<-ev.Subscribe()).Action)

	for i, pid := range []string{"p1", "p2", "p2", "p3"} {
		rec, body = do(t, h, http.MethodPost, "/cmas/"+id+"/comparables", map[string]any{"id": pid, "listPrice": 100000 * (i + 1), "livingArea": 1000})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, i < 2, body["added"], pid)
	}
	assert.Len(t, cmaOf(t, body)["comparables"], 2)

	rec, body = do(t, h, http.MethodGet, "/cmas/"+id+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(150000), stats["averagePrice"])
	assert.Equal(t, float64(150), stats["averagePricePerArea"])

	// Criteria edits rename while the name is still automatic.
	rec, body = do(t, h, http.MethodPatch, "/cmas/"+id, map[string]any{"criteria": map[string]any{"cities": "Austin"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Austin CMA - Oct 15, 2026 9:30 AM", cmaOf(t, body)["name"])

	rec, body = do(t, h, http.MethodPatch, "/cmas/"+id, map[string]any{"name": "Smith listing"})
	require.Equal(t, http.StatusOK, rec.Code)
	m = cmaOf(t, body)
	assert.Equal(t, "manual", m["nameMode"])
	version := int(m["version"].(float64))

	rec, body = do(t, h, http.MethodPatch, "/cmas/"+id, map[string]any{"criteria": map[string]any{"cities": "Leander"}, "version": version})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Smith listing", cmaOf(t, body)["name"])

	rec, body = do(t, h, http.MethodPatch, "/cmas/"+id, map[string]any{"name": "late", "version": version})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "version_conflict", body["error"])

	rec, _ = do(t, h, http.MethodDelete, "/cmas/"+id+"/comparables/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = do(t, h, http.MethodGet, "/cmas/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, cmaOf(t, body)["comparables"], 1)

	rec, _ = do(t, h, http.MethodDelete, "/cmas/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = do(t, h, http.MethodGet, "/cmas/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestCMASubjectKeptApartFromComparables(t *testing.T) {
	h, _, _ := newCMARouter(t)
	_, body := do(t, h, http.MethodPost, "/cmas", map[string]any{"name": "", "comparables": []map[string]any{{"id": "s1"}}})
	m := cmaOf(t, body)
	id := m["id"].(string)
	assert.Equal(t, "manual", m["nameMode"], "an empty name still latches")

	rec, body := do(t, h, http.MethodPut, "/cmas/"+id+"/subject", map[string]any{"id": "s1", "address": "1 Main"})
	require.Equal(t, http.StatusOK, rec.Code)
	m = cmaOf(t, body)
	assert.Equal(t, "s1", m["subject"].(map[string]any)["id"])
	assert.Empty(t, m["comparables"])

	rec, body = do(t, h, http.MethodPost, "/cmas/"+id+"/comparables", map[string]any{"id": "s1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["added"])

	rec, body = do(t, h, http.MethodPut, "/cmas/"+id+"/subject", map[string]any{"address": "no id"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["error"])

	rec, body = do(t, h, http.MethodDelete, "/cmas/"+id+"/subject", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, cmaOf(t, body)["subject"])
}

func multipartUpload(t *testing.T, h http.Handler, path, filename, contentType string, data []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("content-type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestBrochureUploadPersistsOnlyOnSuccess(t *testing.T) {
	h, _, up := newCMARouter(t)
	_, body := do(t, h, http.MethodPost, "/cmas", map[string]any{})
	id := cmaOf(t, body)["id"].(string)

	rec, body := multipartUpload(t, h, "/cmas/"+id+"/brochure", "notes.docx", "application/msword", []byte("doc"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "unsupported_type", body["error"])

	rec, body = multipartUpload(t, h, "/cmas/"+id+"/brochure", "flaky.pdf", "application/pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upload_failed", body["error"])

	_, body = do(t, h, http.MethodGet, "/cmas/"+id, nil)
	assert.Nil(t, cmaOf(t, body)["brochure"], "failed uploads leave no metadata")

	rec, body = multipartUpload(t, h, "/cmas/"+id+"/brochure", "flyer.pdf", "application/pdf", []byte("%PDF"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := cmaOf(t, body)["brochure"].(map[string]any)
	assert.Equal(t, "pdf", b["type"])
	assert.Equal(t, false, b["generated"])
	assert.Equal(t, 3, up.calls)

	rec, body = do(t, h, http.MethodDelete, "/cmas/"+id+"/brochure", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, cmaOf(t, body)["brochure"])

	rec, body = do(t, h, http.MethodPost, "/cmas/"+id+"/brochure/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b = cmaOf(t, body)["brochure"].(map[string]any)
	assert.Equal(t, true, b["generated"])
	assert.Equal(t, "pdf", b["type"])
}

func TestBrochureMetadataFromClientUpload(t *testing.T) {
	h, ev, up := newCMARouter(t)
	_, body := do(t, h, http.MethodPost, "/cmas", map[string]any{})
	id := cmaOf(t, body)["id"].(string)
	<-ev.Subscribe()

	rec, body := do(t, h, http.MethodPost, "/cmas/"+id+"/brochure", map[string]any{"filename": "flyer.png", "url": "https://files.example.com/b/flyer.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := cmaOf(t, body)["brochure"].(map[string]any)
	assert.Equal(t, "image", b["type"])
	assert.Equal(t, "https://files.example.com/b/flyer.png", b["url"])
	assert.Equal(t, false, b["generated"])
	assert.Equal(t, "brochure_uploaded", (<-ev.Subscribe()).Action)
	assert.Zero(t, up.calls, "metadata-only requests never upload")

	rec, body = do(t, h, http.MethodPost, "/cmas/"+id+"/brochure", map[string]any{"filename": "notes.docx", "url": "https://files.example.com/notes.docx"})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "unsupported_type", body["error"])

	rec, body = do(t, h, http.MethodPost, "/cmas/"+id+"/brochure", map[string]any{"filename": "a.pdf", "type": "video"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["error"])

	_, body = do(t, h, http.MethodGet, "/cmas/"+id, nil)
	assert.Equal(t, "flyer.png", cmaOf(t, body)["brochure"].(map[string]any)["filename"])
}

// --- fub ---

type fakeCalendar struct {
	items      []calendar.Item
	err        error
	start, end time.Time
}

func (f *fakeCalendar) Configured() bool { return true }

func (f *fakeCalendar) Calendar(_ context.Context, start, end time.Time, _ int, _ *time.Location) ([]calendar.Item, error) {
	f.start, f.end = start, end
	return f.items, f.err
}

func (f *fakeCalendar) Users(context.Context) ([]fub.User, error) {
	return []fub.User{{ID: 1, Name: "Dana"}}, f.err
}

func (f *fakeCalendar) Identity(context.Context) (fub.Identity, error) { return fub.Identity{}, f.err }

func ts(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func TestFUBCalendarViews(t *testing.T) {
	src := &fakeCalendar{items: []calendar.Item{
		{Kind: calendar.KindTask, ID: "t1", Title: "Call seller", Start: ts("2026-10-16T15:00:00Z")},
		{Kind: calendar.KindEvent, ID: "e1", Title: "Showing", Start: ts("2026-10-15T18:00:00Z")},
		{Kind: calendar.KindTask, ID: "t2", Title: "Someday"},
	}}
	r := chi.NewRouter()
	RegisterFUB(r, FUBDeps{Client: src, Location: time.UTC, Now: func() time.Time { return time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC) }})

	rec, body := do(t, r, http.MethodGet, "/fub/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	days := body["days"].([]any)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-10-15", days[0].(map[string]any)["date"])
	assert.Len(t, body["undated"], 1)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), src.start)

	rec, body = do(t, r, http.MethodGet, "/fub/calendar?view=month&date=2026-11-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["weeks"], 6)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), src.start)

	rec, body = do(t, r, http.MethodGet, "/fub/calendar?view=week", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["days"], 7)

	rec, _ = do(t, r, http.MethodGet, "/fub/calendar?sort=priority", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFUBCalendarWindowsFollowLocalDays(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	src := &fakeCalendar{}
	r := chi.NewRouter()
	RegisterFUB(r, FUBDeps{Client: src, Location: chicago})

	// The default window spans the November DST change and still ends at
	// local midnight thirty days later.
	rec, body := do(t, r, http.MethodGet, "/fub/calendar?start=2026-10-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-11-19", body["end"])
	assert.Equal(t, time.Date(2026, 11, 19, 0, 0, 0, 0, chicago), src.end)

	// An anchor with a foreign offset picks the month it falls in locally.
	src = &fakeCalendar{}
	r = chi.NewRouter()
	RegisterFUB(r, FUBDeps{Client: src, Location: time.UTC})
	rec, body = do(t, r, http.MethodGet, "/fub/calendar?view=month&date=2026-11-01T02:00:00%2B09:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10", body["month"])
	assert.Equal(t, time.Date(2026, 9, 27, 0, 0, 0, 0, time.UTC), src.start)
}

func TestFUBCalendarErrorCarriesHint(t *testing.T) {
	src := &fakeCalendar{err: &provider.UpstreamError{Provider: "fub", Status: 403, Body: map[string]any{"errorMessage": "Access denied"}}}
	r := chi.NewRouter()
	RegisterFUB(r, FUBDeps{Client: src, Location: time.UTC})

	rec, body := do(t, r, http.MethodGet, "/fub/calendar", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Access denied", body["detail"])
	assert.Equal(t, fub.PermissionHint, body["hint"])
}

// --- geocode ---

type fakeBatcher struct{}

func (fakeBatcher) BatchSize() int { return 25 }

func (fakeBatcher) Run(_ context.Context, props []provider.Property) geocode.Outcome {
	out := geocode.Outcome{Updated: []string{}, Failed: []string{}}
	for i := range props {
		lat, lon := 30.1, -97.2
		props[i].Lat, props[i].Lon = &lat, &lon
		out.Updated = append(out.Updated, props[i].ID)
	}
	return out
}

func (b fakeBatcher) RunCMA(ctx context.Context, m *cma.CMA) geocode.Outcome {
	return b.Run(ctx, m.Items)
}

func TestGeocodeBatch(t *testing.T) {
	st := store.NewMemory()
	m := cma.CMA{Name: "x"}
	m.Add(provider.Property{ID: "c1", Address: "1 Main"}, cma.DefaultLimits)
	require.NoError(t, st.Create(context.Background(), &m))

	r := chi.NewRouter()
	RegisterGeocode(r, GeocodeDeps{Batcher: fakeBatcher{}, Store: st})

	rec, body := do(t, r, http.MethodPost, "/geocode/batch", map[string]any{"properties": []map[string]any{{"id": "a"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"a"}, body["updated"])

	rec, _ = do(t, r, http.MethodPost, "/geocode/batch", map[string]any{"cmaId": m.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := st.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].HasCoords())

	rec, body = do(t, r, http.MethodPost, "/geocode/batch", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["error"])
}

// --- health ---

type fakeBanner struct{ b health.Banner }

func (f fakeBanner) Banner() health.Banner { return f.b }

func TestHealthProvidersBanner(t *testing.T) {
	r := chi.NewRouter()
	RegisterHealth(r, HealthDeps{Poller: fakeBanner{health.Banner{Active: "mlsgrid", Healthy: false, Message: "mlsgrid is unavailable"}}})

	rec, body := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])

	rec, body = do(t, r, http.MethodGet, "/health/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	banner := body["banner"].(map[string]any)
	assert.Equal(t, false, banner["healthy"])
	assert.Equal(t, "mlsgrid is unavailable", banner["message"])
}
