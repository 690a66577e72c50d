// Package geocode fills in missing property coordinates in small, paced
// batches, caching every answer by canonical address.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"

	"github.com/yourorg/agentdesk-api/internal/canon"
	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/metrics"
	"github.com/yourorg/agentdesk-api/internal/redisx"
	"github.com/yourorg/agentdesk-api/provider"
)

const (
	DefaultBatchSize = 25
	cachePrefix      = "geo:"
	missPrefix       = "geo:miss:"
)

var (
	ErrNoResult  = errors.New("geocode: no result")
	ErrNoAddress = errors.New("geocode: property has no address")
)

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves a single-line address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Point, error)
}

// Google is the Google Maps Geocoding API behind Geocoder.
type Google struct{ c *maps.Client }

func NewGoogle(apiKey string) (*Google, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("geocode: google client: %w", err)
	}
	return &Google{c: c}, nil
}

func (g *Google) Geocode(ctx context.Context, address string) (Point, error) {
	start := time.Now()
	res, err := g.c.Geocode(ctx, &maps.GeocodingRequest{Address: address, Region: "us"})
	metrics.UpstreamDuration.WithLabelValues("google.geocode").Observe(time.Since(start).Seconds())
	if err != nil {
		return Point{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(res) == 0 {
		return Point{}, ErrNoResult
	}
	loc := res[0].Geometry.Location
	return Point{Lat: loc.Lat, Lon: loc.Lng}, nil
}

type Options struct {
	// BatchSize caps how many properties one Run geocodes.
	BatchSize int
	// RPS paces calls to the geocoder; zero means unpaced.
	RPS      float64
	CacheTTL time.Duration
	// MissTTL keeps addresses that returned nothing from being retried
	// on every batch.
	MissTTL time.Duration
}

// Batcher geocodes properties that lack coordinates.
type Batcher struct {
	geo     Geocoder
	cache   redisx.KV
	limiter *rate.Limiter
	opts    Options
	log     *logrus.Entry
}

func NewBatcher(g Geocoder, cache redisx.KV, opts Options) *Batcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * 24 * time.Hour
	}
	if opts.MissTTL <= 0 {
		opts.MissTTL = 24 * time.Hour
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		lim = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	return &Batcher{geo: g, cache: cache, limiter: lim, opts: opts, log: logrus.WithField("component", "geocode")}
}

func (b *Batcher) BatchSize() int { return b.opts.BatchSize }

// Outcome reports one batch by property id.
type Outcome struct {
	Updated  []string `json:"updated"`
	Failed   []string `json:"failed"`
	Cached   int      `json:"cached"`
	Deferred int      `json:"deferred"`
}

// Run fills Lat/Lon in place for up to BatchSize properties that lack them.
// The remainder is left untouched and counted as deferred for a later call.
// A cancelled context stops the batch; what was done so far is kept.
func (b *Batcher) Run(ctx context.Context, props []provider.Property) Outcome {
	out := Outcome{Updated: []string{}, Failed: []string{}}
	attempted := 0
	for i := range props {
		p := &props[i]
		if p.HasCoords() {
			continue
		}
		if attempted >= b.opts.BatchSize || ctx.Err() != nil {
			out.Deferred++
			continue
		}
		attempted++
		pt, cached, err := b.locate(ctx, *p)
		if cached {
			out.Cached++
		}
		if err != nil {
			metrics.GeocodeResults.WithLabelValues("failed").Inc()
			if !errors.Is(err, ErrNoResult) && !errors.Is(err, ErrNoAddress) {
				b.log.WithError(err).WithField("property", p.ID).Warn("geocode failed")
			}
			out.Failed = append(out.Failed, p.ID)
			continue
		}
		if cached {
			metrics.GeocodeResults.WithLabelValues("cached").Inc()
		} else {
			metrics.GeocodeResults.WithLabelValues("geocoded").Inc()
		}
		lat, lon := pt.Lat, pt.Lon
		p.Lat, p.Lon = &lat, &lon
		out.Updated = append(out.Updated, p.ID)
	}
	if out.Deferred > 0 {
		b.log.WithFields(logrus.Fields{"deferred": out.Deferred, "batch": b.opts.BatchSize}).Info("geocode batch capped")
	}
	return out
}

// RunCMA geocodes a CMA's subject and comparables as one batch and writes
// the coordinates back into m.
func (b *Batcher) RunCMA(ctx context.Context, m *cma.CMA) Outcome {
	props := make([]provider.Property, 0, len(m.Items)+1)
	if m.Subject != nil {
		props = append(props, *m.Subject)
	}
	props = append(props, m.Items...)
	out := b.Run(ctx, props)
	if m.Subject != nil {
		s := props[0]
		m.Subject = &s
		props = props[1:]
	}
	copy(m.Items, props)
	return out
}

func (b *Batcher) locate(ctx context.Context, p provider.Property) (Point, bool, error) {
	addr := canon.Normalize(p.Address, p.City, p.State, p.PostalCode)
	if addr.Empty() {
		return Point{}, false, ErrNoAddress
	}
	key := addr.Key()
	if b.cache != nil {
		var pt Point
		if err := redisx.GetJSON(ctx, b.cache, cachePrefix+key, &pt); err == nil {
			return pt, true, nil
		}
		if v, err := b.cache.Get(ctx, missPrefix+key); err == nil && v != "" {
			return Point{}, true, ErrNoResult
		}
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return Point{}, false, err
	}
	pt, err := b.geo.Geocode(ctx, addr.String())
	if err != nil {
		if errors.Is(err, ErrNoResult) && b.cache != nil {
			_ = b.cache.Set(ctx, missPrefix+key, "1", b.opts.MissTTL)
		}
		return Point{}, false, err
	}
	if b.cache != nil {
		if err := redisx.SetJSON(ctx, b.cache, cachePrefix+key, pt, b.opts.CacheTTL); err != nil {
			b.log.WithError(err).Debug("geocode cache write failed")
		}
	}
	return pt, false, nil
}
