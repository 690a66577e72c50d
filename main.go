package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/fub"
	httpapi "github.com/yourorg/agentdesk-api/http"
	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/config"
	"github.com/yourorg/agentdesk-api/internal/env"
	"github.com/yourorg/agentdesk-api/internal/events"
	"github.com/yourorg/agentdesk-api/internal/geocode"
	"github.com/yourorg/agentdesk-api/internal/health"
	"github.com/yourorg/agentdesk-api/internal/logger"
	"github.com/yourorg/agentdesk-api/internal/redisx"
	"github.com/yourorg/agentdesk-api/internal/store"
	"github.com/yourorg/agentdesk-api/internal/suggest"
	"github.com/yourorg/agentdesk-api/internal/uploads"
	"github.com/yourorg/agentdesk-api/provider"
)

func main() {
	env.LoadDotenv()
	logger.Init("agentdesk-api")

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}

	clients := map[provider.ID]*provider.Client{}
	probers := make([]health.Prober, 0, len(cfg.Providers))
	for _, id := range provider.IDs {
		opts, ok := cfg.Providers[id]
		if !ok {
			continue
		}
		c, err := provider.NewClient(id, opts)
		if err != nil {
			logrus.WithError(err).WithField("provider", id).Fatal("provider client")
		}
		clients[id] = c
		probers = append(probers, c)
	}
	active := clients[cfg.ActiveProvider]
	logrus.WithField("provider", cfg.ActiveProvider).Info("active search provider")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cmas, closeStore := openStore(ctx, cfg.PGDSN)
	kv, closeCache := openCache(ctx, cfg.Redis)
	cancel()
	defer closeStore()
	defer closeCache()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := openEvents(rootCtx, cfg.KafkaBrokers, cfg.KafkaTopic)
	defer pub.Close()

	poller := health.NewPoller(cfg.ActiveProvider, probers, cfg.HealthInterval)
	if err := poller.Start(); err != nil {
		logrus.WithError(err).Fatal("health poller")
	}

	suggestions := suggest.New(active, kv, suggest.Options{
		StaleAfter: cfg.AutocompleteStaleAfter,
		TTL:        cfg.AutocompleteTTL,
		Workers:    2,
		Queue:      64,
	})
	defer suggestions.Close()

	deps := RouterDeps{
		Search:       httpapi.SearchDeps{Provider: active},
		Autocomplete: httpapi.AutocompleteDeps{Suggest: suggestions},
		CMAs: httpapi.CMADeps{
			Store:  cmas,
			Namer:  cma.Namer{Loc: cfg.Location},
			Limits: cfg.CMA,
			Events: pub,
		},
		Geocode:         httpapi.GeocodeDeps{Store: cmas, Events: pub},
		Health:          httpapi.HealthDeps{Poller: poller},
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}

	// Optional integrations stay nil in the deps when unconfigured; the
	// handlers answer 503 for them.
	if up := uploads.NewClient(cfg.Uploads); up.Configured() {
		deps.CMAs.Uploader = up
	} else {
		logrus.Warn("UPLOADS_BASE_URL not set, brochure uploads disabled")
	}
	if cfg.GoogleMapsAPIKey != "" {
		g, err := geocode.NewGoogle(cfg.GoogleMapsAPIKey)
		if err != nil {
			logrus.WithError(err).Fatal("geocoder")
		}
		deps.Geocode.Batcher = geocode.NewBatcher(g, kv, geocode.Options{
			BatchSize: cfg.GeocodeBatchSize,
			RPS:       cfg.GeocodeRPS,
		})
	} else {
		logrus.Warn("GOOGLE_MAPS_API_KEY not set, batch geocoding disabled")
	}
	deps.FUB = httpapi.FUBDeps{Client: fub.NewClient(cfg.FUB), Location: cfg.Location}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           BuildRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("agentdesk-api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server")
		}
	}()

	<-rootCtx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown")
	}
	poller.Stop(shutdownCtx)
}

// openStore uses Postgres when a DSN is configured and an in-process store
// otherwise.
func openStore(ctx context.Context, dsn string) (store.CMAs, func()) {
	if dsn == "" {
		logrus.Warn("PG_DSN not set, CMAs are kept in memory")
		return store.NewMemory(), func() {}
	}
	st, err := store.Open(dsn)
	if err != nil {
		logrus.WithError(err).Fatal("store open")
	}
	if err := st.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("postgres ping")
	}
	if err := st.Migrate(ctx); err != nil {
		logrus.WithError(err).Fatal("postgres migrate")
	}
	return st, func() { _ = st.Close() }
}

func openCache(ctx context.Context, r config.Redis) (redisx.KV, func()) {
	if r.Addr == "" {
		logrus.Warn("REDIS_ADDR not set, using in-process cache")
		return redisx.NewMemory(), func() {}
	}
	rc := redisx.New(r.Addr, r.Password, r.DB)
	if err := rc.Ping(ctx); err != nil {
		logrus.WithError(err).Warn("redis unavailable, using in-process cache")
		_ = rc.Close()
		return redisx.NewMemory(), func() {}
	}
	return rc, func() { _ = rc.Close() }
}

// openEvents publishes to Kafka when brokers are configured. Otherwise events
// stay in process and are logged until ctx ends.
func openEvents(ctx context.Context, brokers []string, topic string) events.Publisher {
	if len(brokers) > 0 {
		logrus.WithField("topic", topic).Info("publishing cma events to kafka")
		return events.NewKafka(brokers, topic)
	}
	mem := events.NewInMemory(256)
	go mem.Run(ctx, events.LogEvent)
	return mem
}
