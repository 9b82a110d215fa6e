package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDispatchesByType(t *testing.T) {
	q := NewQueue("test", Config{Workers: 2})
	done := make(chan Job, 1)
	q.Register("mail", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "mail", Payload: "hello"}))

	select {
	case job := <-done:
		assert.Equal(t, "hello", job.Payload)
		assert.NotEmpty(t, job.ID)
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	q := NewQueue("test", Config{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	var calls int32
	succeeded := make(chan struct{})
	q.Register("flaky", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("temporary")
		}
		close(succeeded)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))

	select {
	case <-succeeded:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueRejectsUnknownTypesAndStoppedQueue(t *testing.T) {
	q := NewQueue("test", Config{})
	require.Error(t, q.Enqueue(Job{Type: "mail"}))

	q.Start(context.Background())
	err := q.Enqueue(Job{Type: "unknown"})
	assert.ErrorIs(t, err, ErrNoHandler)
	q.Stop()
}

func TestQueueDropsAfterRetriesAndReportsOutcomes(t *testing.T) {
	var mu sync.Mutex
	outcomes := map[string]int{}
	dropped := make(chan struct{})
	q := NewQueue("test", Config{MaxRetries: 1, RetryDelay: time.Millisecond, Observe: func(_, outcome string) {
		mu.Lock()
		outcomes[outcome]++
		mu.Unlock()
		if outcome == OutcomeDropped {
			close(dropped)
		}
	}})
	q.Register("broken", func(context.Context, Job) error { return errors.New("smtp down") })
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "broken"}))
	select {
	case <-dropped:
	case <-time.After(time.Second):
		t.Fatal("job was never dropped")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{OutcomeRetried: 1, OutcomeDropped: 1}, outcomes)
}

func TestQueueBackoffDoublesAndCaps(t *testing.T) {
	q := NewQueue("test", Config{RetryDelay: time.Second})
	assert.Equal(t, time.Second, q.delay(0))
	assert.Equal(t, 4*time.Second, q.delay(2))
	assert.Equal(t, maxBackoff, q.delay(30))
}
