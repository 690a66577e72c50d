// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentdesk_upstream_requests_total",
		Help: "Upstream HTTP calls by target and outcome.",
	}, []string{"target", "outcome"})

	UpstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentdesk_upstream_request_duration_seconds",
		Help:    "Upstream HTTP call latency by target.",
		Buckets: prometheus.DefBuckets,
	}, []string{"target"})

	ProviderUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agentdesk_provider_up",
		Help: "Last health probe result per provider (1 up, 0 down).",
	}, []string{"provider"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentdesk_cache_lookups_total",
		Help: "Cache lookups by cache name and result (hit, stale, miss).",
	}, []string{"cache", "result"})

	GeocodeResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentdesk_geocode_results_total",
		Help: "Geocode attempts by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(UpstreamRequests, UpstreamDuration, ProviderUp, CacheLookups, GeocodeResults)
}

func Handler() http.Handler { return promhttp.Handler() }
