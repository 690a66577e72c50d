// Package health polls provider availability on a schedule and keeps the
// latest result for the status banner. Search never waits on it.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/internal/metrics"
	"github.com/yourorg/agentdesk-api/provider"
)

const DefaultInterval = 60 * time.Second

// Prober is a provider client as seen by the poller.
type Prober interface {
	ID() provider.ID
	Health(ctx context.Context) error
}

type Status struct {
	Provider  provider.ID `json:"provider"`
	Up        bool        `json:"up"`
	Checked   bool        `json:"checked"`
	CheckedAt time.Time   `json:"checkedAt,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Banner is what the UI shows above search results.
type Banner struct {
	Active    provider.ID `json:"active"`
	Healthy   bool        `json:"healthy"`
	Message   string      `json:"message,omitempty"`
	Providers []Status    `json:"providers"`
}

type Poller struct {
	active   provider.ID
	probers  []Prober
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      *logrus.Entry

	mu     sync.RWMutex
	status map[provider.ID]Status

	cron *cron.Cron
}

func NewPoller(active provider.ID, probers []Prober, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := interval / 2
	if timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	status := make(map[provider.ID]Status, len(probers))
	for _, p := range probers {
		status[p.ID()] = Status{Provider: p.ID()}
	}
	return &Poller{
		active:   active,
		probers:  probers,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		log:      logrus.WithField("component", "health"),
		status:   status,
	}
}

// Start probes once in the background, then on every interval.
func (p *Poller) Start() error {
	p.cron = cron.New(cron.WithLocation(time.UTC))
	schedule := fmt.Sprintf("@every %s", p.interval)
	if _, err := p.cron.AddFunc(schedule, p.tick); err != nil {
		return fmt.Errorf("health: schedule %q: %w", schedule, err)
	}
	go p.tick()
	p.cron.Start()
	p.log.WithField("interval", p.interval.String()).Info("provider health polling started")
	return nil
}

// Stop halts the schedule and waits for a running probe to finish or ctx to
// expire.
func (p *Poller) Stop(ctx context.Context) {
	if p.cron == nil {
		return
	}
	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (p *Poller) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	p.PollOnce(ctx)
}

// PollOnce probes every provider concurrently and records the results.
func (p *Poller) PollOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, pr := range p.probers {
		wg.Add(1)
		go func(pr Prober) {
			defer wg.Done()
			err := pr.Health(ctx)
			p.record(pr.ID(), err)
		}(pr)
	}
	wg.Wait()
}

func (p *Poller) record(id provider.ID, err error) {
	st := Status{Provider: id, Up: err == nil, Checked: true, CheckedAt: p.now().UTC()}
	gauge := 1.0
	if err != nil {
		st.Error = err.Error()
		gauge = 0
	}
	metrics.ProviderUp.WithLabelValues(string(id)).Set(gauge)

	p.mu.Lock()
	prev, seen := p.status[id]
	p.status[id] = st
	p.mu.Unlock()

	switch {
	case err != nil && (!seen || prev.Up || !prev.Checked):
		p.log.WithField("provider", id).WithError(err).Warn("provider unhealthy")
	case err == nil && seen && prev.Checked && !prev.Up:
		p.log.WithField("provider", id).Info("provider recovered")
	}
}

// Banner summarizes the latest results. Until the first probe completes the
// active provider is assumed healthy.
func (p *Poller) Banner() Banner {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b := Banner{Active: p.active, Healthy: true, Providers: make([]Status, 0, len(p.status))}
	for _, st := range p.status {
		b.Providers = append(b.Providers, st)
	}
	sort.Slice(b.Providers, func(i, j int) bool { return b.Providers[i].Provider < b.Providers[j].Provider })
	if st, ok := p.status[p.active]; ok && st.Checked && !st.Up {
		b.Healthy = false
		b.Message = fmt.Sprintf("The %s listing service is currently unavailable. Search results may fail or be incomplete.", p.active)
	}
	return b
}
