package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/agentdesk-api/internal/suggest"
)

type Suggester interface {
	Lookup(ctx context.Context, field, prefix string) ([]string, string, error)
}

type AutocompleteDeps struct {
	Suggest Suggester
}

func RegisterAutocomplete(r chi.Router, d AutocompleteDeps) {
	r.Get("/autocomplete/{field}", func(w http.ResponseWriter, req *http.Request) {
		field := chi.URLParam(req, "field")
		out, source, err := d.Suggest.Lookup(req.Context(), field, req.URL.Query().Get("q"))
		if errors.Is(err, suggest.ErrUnknownField) {
			fail(w, req, http.StatusBadRequest, "invalid_field", err.Error())
			return
		}
		if err != nil {
			fail(w, req, http.StatusBadGateway, "upstream_error", err.Error())
			return
		}
		render.JSON(w, req, map[string]any{
			"ok":          true,
			"field":       field,
			"source":      source,
			"count":       len(out),
			"suggestions": out,
		})
	})
}
