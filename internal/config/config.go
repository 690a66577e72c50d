// Package config assembles the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/yourorg/agentdesk-api/fub"
	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/env"
	"github.com/yourorg/agentdesk-api/internal/uploads"
	"github.com/yourorg/agentdesk-api/provider"
)

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Port           int
	ActiveProvider provider.ID
	// Providers holds every provider with a base URL; the active one is
	// always present.
	Providers map[provider.ID]provider.Options

	Uploads uploads.Options
	FUB     fub.Options

	GoogleMapsAPIKey string
	GeocodeBatchSize int
	GeocodeRPS       float64

	PGDSN        string
	Redis        Redis
	KafkaBrokers []string
	KafkaTopic   string

	CMA            cma.Limits
	HealthInterval time.Duration
	Location       *time.Location

	AutocompleteStaleAfter time.Duration
	AutocompleteTTL        time.Duration

	CORSOrigins     []string
	RateLimitPerMin int
	UpstreamTimeout time.Duration
}

// Load reads the environment. It fails on an unknown ACTIVE_PROVIDER or
// when the active provider has no base URL.
func Load() (Config, error) {
	c := Config{
		Port:             env.GetInt("PORT", 4002),
		GoogleMapsAPIKey: env.Get("GOOGLE_MAPS_API_KEY", ""),
		GeocodeBatchSize: env.GetInt("GEOCODE_BATCH_SIZE", 25),
		GeocodeRPS:       env.GetFloat("GEOCODE_RPS", 10),
		PGDSN:            env.Get("PG_DSN", ""),
		Redis: Redis{
			Addr:     env.Get("REDIS_ADDR", ""),
			Password: env.Get("REDIS_PASSWORD", ""),
			DB:       env.GetInt("REDIS_DB", 0),
		},
		KafkaBrokers: env.GetList("KAFKA_BROKERS"),
		KafkaTopic:   env.Get("KAFKA_TOPIC", "agentdesk.cma"),
		CMA: cma.Limits{
			MaxComparables:       env.GetInt("CMA_MAX_COMPARABLES", cma.DefaultLimits.MaxComparables),
			SubjectInComparables: env.GetBool("CMA_SUBJECT_IN_COMPARABLES", false),
		},
		HealthInterval:         env.GetDuration("HEALTH_INTERVAL", 60*time.Second),
		AutocompleteStaleAfter: env.GetDuration("AUTOCOMPLETE_STALE_AFTER", 10*time.Minute),
		AutocompleteTTL:        env.GetDuration("AUTOCOMPLETE_TTL", 24*time.Hour),
		CORSOrigins:            env.GetList("CORS_ORIGINS"),
		RateLimitPerMin:        env.GetInt("RATE_LIMIT_PER_MIN", 100),
		UpstreamTimeout:        env.GetDuration("UPSTREAM_TIMEOUT", 8*time.Second),
	}

	active, err := provider.ParseID(env.Get("ACTIVE_PROVIDER", string(provider.HomeReview)))
	if err != nil {
		return c, err
	}
	c.ActiveProvider = active

	c.Providers = map[provider.ID]provider.Options{}
	for _, id := range provider.IDs {
		prefix := strings.ToUpper(string(id))
		base := env.Get(prefix+"_BASE_URL", "")
		if base == "" {
			continue
		}
		c.Providers[id] = provider.Options{
			BaseURL: base,
			APIKey:  env.Get(prefix+"_API_KEY", ""),
			Timeout: c.UpstreamTimeout,
		}
	}
	if _, ok := c.Providers[active]; !ok {
		return c, fmt.Errorf("config: %s_BASE_URL is required for the active provider", strings.ToUpper(string(active)))
	}

	c.Uploads = uploads.Options{
		BaseURL: env.Get("UPLOADS_BASE_URL", ""),
		APIKey:  env.Get("UPLOADS_API_KEY", ""),
		Prefix:  env.Get("UPLOADS_PREFIX", "brochures"),
	}
	c.FUB = fub.Options{
		BaseURL:   env.Get("FUB_BASE_URL", fub.DefaultBaseURL),
		APIKey:    env.Get("FUB_API_KEY", ""),
		System:    env.Get("FUB_SYSTEM", "AgentDesk"),
		SystemKey: env.Get("FUB_SYSTEM_KEY", ""),
		Timeout:   c.UpstreamTimeout,
	}

	if c.CMA.MaxComparables <= 0 {
		return c, errors.New("config: CMA_MAX_COMPARABLES must be positive")
	}
	if c.GeocodeBatchSize <= 0 {
		c.GeocodeBatchSize = 25
	}

	tz := env.Get("CALENDAR_TIMEZONE", "America/Chicago")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return c, fmt.Errorf("config: CALENDAR_TIMEZONE: %w", err)
	}
	c.Location = loc
	return c, nil
}
