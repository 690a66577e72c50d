// Package suggest serves autocomplete suggestions from a stale-while-
// revalidate cache in front of the active provider.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/internal/metrics"
	"github.com/yourorg/agentdesk-api/internal/redisx"
	"github.com/yourorg/agentdesk-api/internal/refresh"
	"github.com/yourorg/agentdesk-api/provider"
)

// Fields lists the criteria fields that support autocomplete.
var Fields = []string{"cities", "subdivisions", "schools", "postalCodes"}

var ErrUnknownField = errors.New("autocomplete is not available for this field")

const lockTTL = 8 * time.Second

// Source is a provider able to answer autocomplete queries.
type Source interface {
	ID() provider.ID
	Autocomplete(ctx context.Context, field, prefix string) ([]string, error)
}

type Options struct {
	StaleAfter time.Duration
	TTL        time.Duration
	// Workers and Queue size the background refresher.
	Workers int
	Queue   int
}

type Service struct {
	src       Source
	cache     redisx.KV
	opts      Options
	refresher *refresh.Refresher
	now       func() time.Time
	log       *logrus.Entry
}

func New(src Source, cache redisx.KV, opts Options) *Service {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 10 * time.Minute
	}
	if opts.TTL < opts.StaleAfter {
		opts.TTL = 24 * time.Hour
	}
	s := &Service{src: src, cache: cache, opts: opts, now: time.Now, log: logrus.WithField("component", "suggest")}
	s.refresher = refresh.New(opts.Queue, opts.Workers, 10*time.Second, func(ctx context.Context, j refresh.Job) error {
		_, err := s.fetch(ctx, j.Field, j.Prefix)
		return err
	})
	return s
}

// Close drains pending background refreshes.
func (s *Service) Close() { s.refresher.Close() }

// NormalizeField accepts the field names case-insensitively.
func NormalizeField(field string) (string, error) {
	for _, f := range Fields {
		if strings.EqualFold(f, strings.TrimSpace(field)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
}

func (s *Service) key(field, prefix string) string {
	return "ac:" + string(s.src.ID()) + ":" + field + ":" + strings.ToLower(strings.TrimSpace(prefix))
}

// Lookup answers from cache when possible. Stale entries are returned as-is
// and refreshed in the background. The second result is "fresh", "cache",
// "stale" or "pending" (another request holds the miss lock; the result is
// empty).
func (s *Service) Lookup(ctx context.Context, field, prefix string) ([]string, string, error) {
	field, err := NormalizeField(field)
	if err != nil {
		return nil, "", err
	}
	prefix = strings.TrimSpace(prefix)
	var env redisx.Envelope[[]string]
	if err := redisx.GetJSON(ctx, s.cache, s.key(field, prefix), &env); err == nil {
		if !env.Stale(s.now()) {
			metrics.CacheLookups.WithLabelValues("autocomplete", "hit").Inc()
			return env.Data, "cache", nil
		}
		metrics.CacheLookups.WithLabelValues("autocomplete", "stale").Inc()
		s.refresher.Enqueue(refresh.Job{Key: s.key(field, prefix), Field: field, Prefix: prefix})
		return env.Data, "stale", nil
	} else if !redisx.IsMiss(err) {
		s.log.WithError(err).Debug("autocomplete cache read failed")
	}
	metrics.CacheLookups.WithLabelValues("autocomplete", "miss").Inc()

	// Miss: take a short lock so concurrent misses do not stampede upstream.
	lock := s.lockKey(field, prefix)
	ok, err := s.cache.SetNX(ctx, lock, "1", lockTTL)
	if err != nil {
		s.log.WithError(err).Debug("autocomplete lock failed, fetching anyway")
	} else if !ok {
		return []string{}, "pending", nil
	} else {
		defer func() {
			if err := s.cache.Del(context.WithoutCancel(ctx), lock); err != nil {
				s.log.WithError(err).Debug("autocomplete lock release failed")
			}
		}()
	}
	out, err := s.fetch(ctx, field, prefix)
	if err != nil {
		return nil, "", err
	}
	return out, "fresh", nil
}

func (s *Service) lockKey(field, prefix string) string {
	return "ac:lock:" + string(s.src.ID()) + ":" + field + ":" + strings.ToLower(strings.TrimSpace(prefix))
}

func (s *Service) fetch(ctx context.Context, field, prefix string) ([]string, error) {
	out, err := s.src.Autocomplete(ctx, field, prefix)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	env := redisx.Wrap(out, s.now(), s.opts.StaleAfter, string(s.src.ID()))
	if err := redisx.SetJSON(ctx, s.cache, s.key(field, prefix), env, s.opts.TTL); err != nil {
		s.log.WithError(err).Debug("autocomplete cache write failed")
	}
	return out, nil
}
