package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/agentdesk-api/internal/health"
)

type HealthDeps struct {
	Poller interface{ Banner() health.Banner }
}

func RegisterHealth(r chi.Router, d HealthDeps) {
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{"ok": true})
	})
	// The banner reflects the last poll only; it never probes inline.
	r.Get("/health/providers", func(w http.ResponseWriter, req *http.Request) {
		if d.Poller == nil {
			render.JSON(w, req, map[string]any{"ok": true, "banner": nil})
			return
		}
		render.JSON(w, req, map[string]any{"ok": true, "banner": d.Poller.Banner()})
	})
}
