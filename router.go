package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/rs/cors"

	httpapi "github.com/yourorg/agentdesk-api/http"
	"github.com/yourorg/agentdesk-api/internal/logger"
	"github.com/yourorg/agentdesk-api/internal/metrics"
)

type RouterDeps struct {
	Search       httpapi.SearchDeps
	Autocomplete httpapi.AutocompleteDeps
	CMAs         httpapi.CMADeps
	FUB          httpapi.FUBDeps
	Geocode      httpapi.GeocodeDeps
	Health       httpapi.HealthDeps

	CORSOrigins     []string
	RateLimitPerMin int
}

func BuildRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	if d.RateLimitPerMin > 0 {
		r.Use(httprate.LimitByIP(d.RateLimitPerMin, time.Minute)) // protect upstream quota
	}
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	httpapi.RegisterHealth(r, d.Health)
	httpapi.RegisterSearch(r, d.Search)
	httpapi.RegisterAutocomplete(r, d.Autocomplete)
	httpapi.RegisterCMAs(r, d.CMAs)
	httpapi.RegisterGeocode(r, d.Geocode)
	if d.FUB.Client != nil {
		httpapi.RegisterFUB(r, d.FUB)
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	co := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return co.Handler(logger.Middleware(r))
}
