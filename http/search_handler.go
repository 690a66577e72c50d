package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/internal/criteria"
	"github.com/yourorg/agentdesk-api/provider"
)

// Searcher is the active provider client.
type Searcher interface {
	ID() provider.ID
	Search(ctx context.Context, c criteria.Criteria, p provider.Page) (provider.Result, error)
}

type SearchDeps struct {
	Provider Searcher
}

type SearchRequest struct {
	criteria.Criteria
	Page  *int `json:"page,omitempty" validate:"omitempty,min=1"`
	Limit *int `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
}

// UnmarshalJSON reads pagination and criteria from the same flat body;
// without it the embedded Criteria decoder would swallow page and limit.
func (s *SearchRequest) UnmarshalJSON(b []byte) error {
	var p struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if err := json.Unmarshal(b, &s.Criteria); err != nil {
		return err
	}
	s.Page, s.Limit = p.Page, p.Limit
	return nil
}

// RegisterSearch mounts the search endpoint. Each request is one explicit
// search; a client that abandons a request cancels its upstream call.
func RegisterSearch(r chi.Router, d SearchDeps) {
	// POST: JSON body
	r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
		var body SearchRequest
		if !decodeJSON(w, req, &body) {
			return
		}
		handleSearch(w, req, d, body)
	})

	// GET: query params, same names as the JSON body
	r.Get("/search", func(w http.ResponseWriter, req *http.Request) {
		body := SearchRequest{Criteria: criteria.FromQuery(req.URL.Query())}
		if p := queryInt(req, "page", 0); p > 0 {
			body.Page = &p
		}
		if l := queryInt(req, "limit", 0); l > 0 {
			body.Limit = &l
		}
		if err := validate.Struct(body); err != nil {
			fail(w, req, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		handleSearch(w, req, d, body)
	})
}

func handleSearch(w http.ResponseWriter, req *http.Request, d SearchDeps, body SearchRequest) {
	page := provider.Page{Number: defInt(body.Page, 1), Limit: defInt(body.Limit, 40)}
	res, err := d.Provider.Search(req.Context(), body.Criteria, page)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logrus.WithField("provider", d.Provider.ID()).Debug("search abandoned by client")
			return
		}
		logrus.WithError(err).WithField("provider", d.Provider.ID()).Warn("search failed")
		fail(w, req, http.StatusBadGateway, "upstream_error", "unable to search: "+err.Error())
		return
	}
	props := res.Properties
	if props == nil {
		props = []provider.Property{}
	}
	render.JSON(w, req, map[string]any{
		"ok":         true,
		"provider":   d.Provider.ID(),
		"count":      len(props),
		"total":      res.Total,
		"hasMore":    res.HasMore,
		"page":       page.Number,
		"totalPages": res.TotalPages,
		"source":     res.Source,
		"properties": props,
	})
}
