// Package refresh runs background cache refreshes on a small worker pool.
// Jobs with the same key are coalesced while one is queued or running.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job refreshes one cache entry.
type Job struct {
	// Key identifies the entry; duplicates are dropped while in flight.
	Key    string
	Field  string
	Prefix string
}

type Refresher struct {
	ch      chan Job
	inFly   sync.Map // key -> struct{}
	do      func(ctx context.Context, j Job) error
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
	log     *logrus.Entry
}

func New(capacity int, workerCount int, timeout time.Duration, do func(ctx context.Context, j Job) error) *Refresher {
	if capacity <= 0 {
		capacity = 256
	}
	if workerCount <= 0 {
		workerCount = 2
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	r := &Refresher{
		ch:      make(chan Job, capacity),
		do:      do,
		timeout: timeout,
		log:     logrus.WithField("component", "refresh"),
	}
	for i := 0; i < workerCount; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Enqueue schedules j unless the same key is already pending. It never
// blocks: when the queue is full the job is dropped and false returned.
func (r *Refresher) Enqueue(j Job) bool {
	if _, exists := r.inFly.LoadOrStore(j.Key, struct{}{}); exists {
		return false
	}
	select {
	case r.ch <- j:
		return true
	default:
		r.inFly.Delete(j.Key)
		r.log.WithField("key", j.Key).Debug("refresh queue full, dropping")
		return false
	}
}

// Close stops accepting work and waits for queued jobs to finish.
func (r *Refresher) Close() {
	r.once.Do(func() { close(r.ch) })
	r.wg.Wait()
}

func (r *Refresher) worker() {
	defer r.wg.Done()
	for j := range r.ch {
		r.run(j)
	}
}

func (r *Refresher) run(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer func() {
		r.inFly.Delete(j.Key)
		cancel()
	}()
	if r.do == nil {
		return
	}
	if err := r.do(ctx, j); err != nil {
		r.log.WithError(err).WithField("key", j.Key).Warn("background refresh failed")
	}
}
