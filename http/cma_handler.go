package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/criteria"
	"github.com/yourorg/agentdesk-api/internal/events"
	"github.com/yourorg/agentdesk-api/internal/store"
	"github.com/yourorg/agentdesk-api/provider"
)

type Uploader interface {
	Configured() bool
	Upload(ctx context.Context, cmaID, filename, contentType string, body []byte) (cma.Brochure, error)
}

type CMADeps struct {
	Store    store.CMAs
	Namer    cma.Namer
	Limits   cma.Limits
	Events   events.Publisher
	Uploader Uploader
}

type CreateCMARequest struct {
	// Name is optional; a supplied name, even "", disables auto-naming.
	Name        *string             `json:"name"`
	Criteria    criteria.Criteria   `json:"criteria"`
	Subject     *provider.Property  `json:"subject"`
	Comparables []provider.Property `json:"comparables" validate:"dive"`
}

type UpdateCMARequest struct {
	// Version, when sent, must match the stored version.
	Version  *int               `json:"version" validate:"omitempty,min=1"`
	Name     *string            `json:"name"`
	Criteria *criteria.Criteria `json:"criteria"`
}

type PropertyRequest struct {
	provider.Property
	ID string `json:"id" validate:"required"`
}

func (p PropertyRequest) property() provider.Property {
	out := p.Property
	out.ID = p.ID
	return out
}

func RegisterCMAs(r chi.Router, d CMADeps) {
	if d.Limits.MaxComparables == 0 {
		d.Limits = cma.DefaultLimits
	}
	r.Route("/cmas", func(r chi.Router) {
		r.Post("/", d.create)
		r.Get("/", d.list)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", d.get)
			r.Patch("/", d.update)
			r.Delete("/", d.delete)
			r.Get("/stats", d.stats)
			r.Put("/subject", d.setSubject)
			r.Delete("/subject", d.clearSubject)
			r.Post("/comparables", d.addComparable)
			r.Delete("/comparables/{propertyID}", d.removeComparable)
			r.Post("/brochure", d.uploadBrochure)
			r.Post("/brochure/generate", d.generateBrochure)
			r.Delete("/brochure", d.deleteBrochure)
		})
	})
}

func (d CMADeps) storeError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(w, req, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrVersionConflict):
		fail(w, req, http.StatusConflict, "version_conflict", err.Error())
	default:
		logrus.WithError(err).Error("cma store")
		fail(w, req, http.StatusInternalServerError, "store_error", err.Error())
	}
}

func (d CMADeps) publish(ctx context.Context, m cma.CMA, action string) {
	if d.Events != nil {
		d.Events.PublishCMAUpdated(ctx, events.NewCMAUpdated(m.ID, action, m.Version))
	}
}

func (d CMADeps) respond(w http.ResponseWriter, req *http.Request, m cma.CMA, extra map[string]any) {
	body := map[string]any{"ok": true, "cma": m}
	if s, ok := m.Summary(); ok {
		body["stats"] = s
	}
	for k, v := range extra {
		body[k] = v
	}
	render.JSON(w, req, body)
}

// mutate loads the CMA, applies fn and persists the result when fn reports
// a change. A concurrent writer surfaces as 409.
func (d CMADeps) mutate(w http.ResponseWriter, req *http.Request, action string, fn func(m *cma.CMA) (bool, map[string]any)) {
	ctx := req.Context()
	m, err := d.Store.Get(ctx, chi.URLParam(req, "id"))
	if err != nil {
		d.storeError(w, req, err)
		return
	}
	changed, extra := fn(&m)
	if changed {
		if err := d.Store.Update(ctx, &m); err != nil {
			d.storeError(w, req, err)
			return
		}
		d.publish(ctx, m, action)
	}
	d.respond(w, req, m, extra)
}

func (d CMADeps) create(w http.ResponseWriter, req *http.Request) {
	var body CreateCMARequest
	if !decodeJSON(w, req, &body) {
		return
	}
	m := cma.New(body.Criteria, body.Name, d.Namer)
	if body.Subject != nil {
		m.SetSubject(*body.Subject, d.Limits)
	}
	for _, p := range body.Comparables {
		m.Add(p, d.Limits)
	}
	if err := d.Store.Create(req.Context(), &m); err != nil {
		d.storeError(w, req, err)
		return
	}
	d.publish(req.Context(), m, "created")
	render.Status(req, http.StatusCreated)
	d.respond(w, req, m, nil)
}

func (d CMADeps) list(w http.ResponseWriter, req *http.Request) {
	limit := queryInt(req, "limit", 50)
	offset := queryInt(req, "offset", 0)
	items, err := d.Store.List(req.Context(), limit, offset)
	if err != nil {
		d.storeError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "count": len(items), "cmas": items})
}

func (d CMADeps) get(w http.ResponseWriter, req *http.Request) {
	m, err := d.Store.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		d.storeError(w, req, err)
		return
	}
	d.respond(w, req, m, nil)
}

func (d CMADeps) update(w http.ResponseWriter, req *http.Request) {
	var body UpdateCMARequest
	if !decodeJSON(w, req, &body) {
		return
	}
	ctx := req.Context()
	m, err := d.Store.Get(ctx, chi.URLParam(req, "id"))
	if err != nil {
		d.storeError(w, req, err)
		return
	}
	if body.Version != nil && *body.Version != m.Version {
		d.storeError(w, req, store.ErrVersionConflict)
		return
	}
	// Criteria first so an explicit name in the same request wins.
	if body.Criteria != nil {
		m.UpdateCriteria(*body.Criteria, d.Namer)
	}
	if body.Name != nil {
		m.Rename(*body.Name)
	}
	if body.Criteria == nil && body.Name == nil {
		d.respond(w, req, m, nil)
		return
	}
	if err := d.Store.Update(ctx, &m); err != nil {
		d.storeError(w, req, err)
		return
	}
	d.publish(ctx, m, "updated")
	d.respond(w, req, m, nil)
}

func (d CMADeps) delete(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	if err := d.Store.Delete(req.Context(), id); err != nil {
		d.storeError(w, req, err)
		return
	}
	d.publish(req.Context(), cma.CMA{ID: id}, "deleted")
	render.JSON(w, req, map[string]any{"ok": true, "id": id})
}

func (d CMADeps) stats(w http.ResponseWriter, req *http.Request) {
	m, err := d.Store.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		d.storeError(w, req, err)
		return
	}
	s, ok := m.Summary()
	render.JSON(w, req, map[string]any{"ok": true, "empty": !ok, "stats": s})
}

func (d CMADeps) setSubject(w http.ResponseWriter, req *http.Request) {
	var body PropertyRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	d.mutate(w, req, "subject_set", func(m *cma.CMA) (bool, map[string]any) {
		m.SetSubject(body.property(), d.Limits)
		return true, nil
	})
}

func (d CMADeps) clearSubject(w http.ResponseWriter, req *http.Request) {
	d.mutate(w, req, "subject_cleared", func(m *cma.CMA) (bool, map[string]any) {
		if m.Subject == nil {
			return false, nil
		}
		m.ClearSubject()
		return true, nil
	})
}

func (d CMADeps) addComparable(w http.ResponseWriter, req *http.Request) {
	var body PropertyRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	d.mutate(w, req, "comparable_added", func(m *cma.CMA) (bool, map[string]any) {
		added := m.Add(body.property(), d.Limits)
		extra := map[string]any{"added": added, "max": d.Limits.MaxComparables}
		return added, extra
	})
}

func (d CMADeps) removeComparable(w http.ResponseWriter, req *http.Request) {
	pid := chi.URLParam(req, "propertyID")
	d.mutate(w, req, "comparable_removed", func(m *cma.CMA) (bool, map[string]any) {
		removed := m.Remove(pid)
		return removed, map[string]any{"removed": removed}
	})
}

func (d CMADeps) generateBrochure(w http.ResponseWriter, req *http.Request) {
	d.mutate(w, req, "brochure_generated", func(m *cma.CMA) (bool, map[string]any) {
		m.Brochure = &cma.Brochure{
			Filename:   cma.BrochureFilename(m.Name),
			Type:       cma.BrochurePDF,
			Generated:  true,
			UploadedAt: time.Now().UTC(),
		}
		return true, nil
	})
}

func (d CMADeps) deleteBrochure(w http.ResponseWriter, req *http.Request) {
	d.mutate(w, req, "brochure_removed", func(m *cma.CMA) (bool, map[string]any) {
		if m.Brochure == nil {
			return false, nil
		}
		m.Brochure = nil
		return true, nil
	})
}
