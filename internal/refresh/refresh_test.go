package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnqueueCoalescesInFlightKeys(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32
	r := New(8, 1, time.Second, func(ctx context.Context, j Job) error {
		runs.Add(1)
		<-release
		return nil
	})

	assert.True(t, r.Enqueue(Job{Key: "cities:au"}))
	assert.False(t, r.Enqueue(Job{Key: "cities:au"}), "duplicate while running")
	assert.True(t, r.Enqueue(Job{Key: "cities:ro"}))

	close(release)
	r.Close()
	assert.Equal(t, int32(2), runs.Load())

	// Keys are released once their job finishes.
	_, pending := r.inFly.Load("cities:au")
	assert.False(t, pending)
}

func TestEnqueueDropsWhenSaturated(t *testing.T) {
	block := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	var once sync.Once
	r := New(1, 1, time.Second, func(ctx context.Context, j Job) error {
		once.Do(started.Done)
		<-block
		return nil
	})
	assert.True(t, r.Enqueue(Job{Key: "a"}))
	started.Wait() // worker holds "a"; the queue is empty again
	assert.True(t, r.Enqueue(Job{Key: "b"}))
	assert.False(t, r.Enqueue(Job{Key: "c"}), "queue of one is full")

	_, pending := r.inFly.Load("c")
	assert.False(t, pending, "dropped jobs do not block later attempts")
	close(block)
	r.Close()
}

func TestJobTimeout(t *testing.T) {
	done := make(chan error, 1)
	r := New(1, 1, 20*time.Millisecond, func(ctx context.Context, j Job) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	r.Enqueue(Job{Key: "slow"})
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled")
	}
	r.Close()
}
