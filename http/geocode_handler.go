package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/events"
	"github.com/yourorg/agentdesk-api/internal/geocode"
	"github.com/yourorg/agentdesk-api/internal/store"
	"github.com/yourorg/agentdesk-api/provider"
)

type BatchGeocoder interface {
	BatchSize() int
	Run(ctx context.Context, props []provider.Property) geocode.Outcome
	RunCMA(ctx context.Context, m *cma.CMA) geocode.Outcome
}

type GeocodeDeps struct {
	Batcher BatchGeocoder
	Store   store.CMAs
	Events  events.Publisher
}

// GeocodeRequest carries either loose properties or the id of a stored CMA
// whose subject and comparables should be geocoded.
type GeocodeRequest struct {
	CMAID      string              `json:"cmaId" validate:"required_without=Properties"`
	Properties []provider.Property `json:"properties" validate:"required_without=CMAID"`
}

func RegisterGeocode(r chi.Router, d GeocodeDeps) {
	r.Post("/geocode/batch", func(w http.ResponseWriter, req *http.Request) {
		if d.Batcher == nil {
			fail(w, req, http.StatusServiceUnavailable, "geocoding_unavailable", "GOOGLE_MAPS_API_KEY is not set")
			return
		}
		var body GeocodeRequest
		if !decodeJSON(w, req, &body) {
			return
		}
		if body.CMAID != "" {
			geocodeCMA(w, req, d, body.CMAID)
			return
		}
		out := d.Batcher.Run(req.Context(), body.Properties)
		render.JSON(w, req, map[string]any{
			"ok":         true,
			"batchSize":  d.Batcher.BatchSize(),
			"updated":    out.Updated,
			"failed":     out.Failed,
			"cached":     out.Cached,
			"deferred":   out.Deferred,
			"properties": body.Properties,
		})
	})
}

func geocodeCMA(w http.ResponseWriter, req *http.Request, d GeocodeDeps, id string) {
	ctx := req.Context()
	cd := CMADeps{Store: d.Store, Events: d.Events}
	if d.Store == nil {
		fail(w, req, http.StatusServiceUnavailable, "store_unavailable", "no CMA store configured")
		return
	}
	m, err := d.Store.Get(ctx, id)
	if err != nil {
		cd.storeError(w, req, err)
		return
	}
	out := d.Batcher.RunCMA(ctx, &m)
	if len(out.Updated) > 0 {
		if err := d.Store.Update(ctx, &m); err != nil {
			cd.storeError(w, req, err)
			return
		}
		cd.publish(ctx, m, "geocoded")
	}
	cd.respond(w, req, m, map[string]any{
		"batchSize": d.Batcher.BatchSize(),
		"updated":   out.Updated,
		"failed":    out.Failed,
		"cached":    out.Cached,
		"deferred":  out.Deferred,
	})
}
