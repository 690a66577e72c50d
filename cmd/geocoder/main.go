// Command geocoder backfills coordinates on stored CMAs, one batch per CMA
// per pass.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/internal/env"
	"github.com/yourorg/agentdesk-api/internal/events"
	"github.com/yourorg/agentdesk-api/internal/geocode"
	"github.com/yourorg/agentdesk-api/internal/logger"
	"github.com/yourorg/agentdesk-api/internal/redisx"
	"github.com/yourorg/agentdesk-api/internal/store"
)

const pageSize = 100

func main() {
	once := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

	env.LoadDotenv()
	logger.Init("agentdesk-geocoder")

	apiKey := env.Must("GOOGLE_MAPS_API_KEY")
	dsn := env.Must("PG_DSN")
	interval := env.GetDuration("GEOCODER_INTERVAL", time.Hour)
	runOnce := *once || env.GetBool("GEOCODER_RUN_ONCE", false)

	st, err := store.Open(dsn)
	if err != nil {
		logrus.WithError(err).Fatal("store open")
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.Ping(ctx); err != nil {
		cancel()
		logrus.WithError(err).Fatal("postgres ping")
	}
	if err := st.Migrate(ctx); err != nil {
		cancel()
		logrus.WithError(err).Fatal("postgres migrate")
	}
	cancel()

	var cache redisx.KV = redisx.NewMemory()
	if addr := env.Get("REDIS_ADDR", ""); addr != "" {
		rc := redisx.New(addr, env.Get("REDIS_PASSWORD", ""), env.GetInt("REDIS_DB", 0))
		defer rc.Close()
		cache = rc
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub events.Publisher
	if brokers := env.GetList("KAFKA_BROKERS"); len(brokers) > 0 {
		pub = events.NewKafka(brokers, env.Get("KAFKA_TOPIC", "agentdesk.cma"))
	} else {
		mem := events.NewInMemory(256)
		go mem.Run(rootCtx, events.LogEvent)
		pub = mem
	}
	defer pub.Close()

	g, err := geocode.NewGoogle(apiKey)
	if err != nil {
		logrus.WithError(err).Fatal("geocoder")
	}
	job := &backfill{
		store: st,
		batch: geocode.NewBatcher(g, cache, geocode.Options{
			BatchSize: env.GetInt("GEOCODE_BATCH_SIZE", geocode.DefaultBatchSize),
			RPS:       env.GetFloat("GEOCODE_RPS", 10),
		}),
		pub: pub,
		log: logrus.WithField("component", "geocoder"),
	}

	if runOnce {
		if err := job.pass(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Fatal("geocoder pass failed")
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := job.pass(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			job.log.WithError(err).Warn("geocoder pass failed")
		}
		select {
		case <-rootCtx.Done():
			return
		case <-ticker.C:
		}
	}
}

type backfill struct {
	store store.CMAs
	batch *geocode.Batcher
	pub   events.Publisher
	log   *logrus.Entry
}

// pass snapshots every CMA id before touching any row, since updates reorder
// the listing.
func (b *backfill) pass(ctx context.Context) error {
	var ids []string
	for offset := 0; ; offset += pageSize {
		page, err := b.store.List(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		for _, m := range page {
			ids = append(ids, m.ID)
		}
		if len(page) < pageSize {
			break
		}
	}

	var updated, failed int
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := b.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		out := b.batch.RunCMA(ctx, &m)
		failed += len(out.Failed)
		if len(out.Updated) == 0 {
			continue
		}
		if err := b.store.Update(ctx, &m); err != nil {
			// A concurrent edit wins; the next pass retries from cache.
			b.log.WithError(err).WithField("cma", id).Warn("geocoded cma not saved")
			continue
		}
		updated += len(out.Updated)
		b.pub.PublishCMAUpdated(ctx, events.NewCMAUpdated(m.ID, "geocoded", m.Version))
	}
	b.log.WithFields(logrus.Fields{"cmas": len(ids), "updated": updated, "failed": failed}).Info("geocoder pass complete")
	return nil
}
