package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankstack/rankstack-sync/internal/model"
)

// recordingApplier captures applied jobs and can fail a key a fixed number of
// times before succeeding.
type recordingApplier struct {
	mu       sync.Mutex
	perKey   map[string][]Op
	failLeft map[string]int
	failWith error
	delay    time.Duration
}

func newRecordingApplier() *recordingApplier {
	return &recordingApplier{
		perKey:   make(map[string][]Op),
		failLeft: make(map[string]int),
	}
}

func (a *recordingApplier) Apply(_ context.Context, job *Job) error {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := a.failLeft[job.Key]; n > 0 {
		a.failLeft[job.Key] = n - 1
		if a.failWith != nil {
			return a.failWith
		}
		return errors.New("transient failure")
	}
	a.perKey[job.Key] = append(a.perKey[job.Key], job.Op)
	return nil
}

func (a *recordingApplier) appliedFor(key string) []Op {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Op, len(a.perKey[key]))
	copy(out, a.perKey[key])
	return out
}

func testConfig() Config {
	return Config{
		Shards:         2,
		QueueSize:      32,
		EnqueueTimeout: 50 * time.Millisecond,
		MaxAttempts:    3,
		BaseBackoff:    time.Millisecond,
		MaxInterval:    5 * time.Millisecond,
		Log:            zerolog.Nop(),
	}
}

func TestQueue_PerKeyFIFO(t *testing.T) {
	applier := newRecordingApplier()
	q := NewQueue(applier, testConfig())
	defer q.Stop()

	ctx := context.Background()
	ops := []Op{OpSaveCollection, OpUpdateCollection, OpDeleteCollection}
	for _, op := range ops {
		require.NoError(t, q.Submit(ctx, &Job{Op: op, Key: "col-1"}))
	}
	require.NoError(t, q.Barrier(ctx, "col-1"))

	assert.Equal(t, ops, applier.appliedFor("col-1"))
}

func TestQueue_TransientErrorIsRetried(t *testing.T) {
	applier := newRecordingApplier()
	applier.failLeft["item-1"] = 2

	q := NewQueue(applier, testConfig())
	defer q.Stop()

	ctx := context.Background()
	require.NoError(t, q.Submit(ctx, &Job{Op: OpSaveItem, Key: "item-1"}))
	require.NoError(t, q.Barrier(ctx, "item-1"))

	assert.Equal(t, []Op{OpSaveItem}, applier.appliedFor("item-1"))
}

func TestQueue_RetriesExhaustedReportsError(t *testing.T) {
	applier := newRecordingApplier()
	applier.failLeft["item-1"] = 10

	var handled []error
	var mu sync.Mutex
	cfg := testConfig()
	cfg.ErrorHandler = func(err error) {
		mu.Lock()
		handled = append(handled, err)
		mu.Unlock()
	}

	q := NewQueue(applier, cfg)
	defer q.Stop()

	ctx := context.Background()
	require.NoError(t, q.Submit(ctx, &Job{Op: OpSaveItem, Key: "item-1"}))
	require.NoError(t, q.Barrier(ctx, "item-1"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, handled, 1)
	assert.Empty(t, applier.appliedFor("item-1"))
}

func TestQueue_DomainErrorsAreNotRetried(t *testing.T) {
	applier := newRecordingApplier()
	applier.failLeft["item-1"] = 10
	applier.failWith = model.ErrNotFound

	var handled []error
	var mu sync.Mutex
	cfg := testConfig()
	cfg.ErrorHandler = func(err error) {
		mu.Lock()
		handled = append(handled, err)
		mu.Unlock()
	}

	q := NewQueue(applier, cfg)
	defer q.Stop()

	ctx := context.Background()
	require.NoError(t, q.Submit(ctx, &Job{Op: OpDeleteItem, Key: "item-1"}))
	require.NoError(t, q.Barrier(ctx, "item-1"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, handled, 1)
	assert.ErrorIs(t, handled[0], model.ErrNotFound)

	applier.mu.Lock()
	// One failure consumed means exactly one attempt was made.
	assert.Equal(t, 9, applier.failLeft["item-1"])
	applier.mu.Unlock()
}

func TestQueue_SubmitAfterStop(t *testing.T) {
	q := NewQueue(newRecordingApplier(), testConfig())
	q.Stop()

	err := q.Submit(context.Background(), &Job{Op: OpSaveItem, Key: "item-1"})
	assert.ErrorIs(t, err, ErrQueueClosed)

	err = q.Barrier(context.Background(), "item-1")
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_StopDrainsPendingJobs(t *testing.T) {
	applier := newRecordingApplier()
	applier.delay = 5 * time.Millisecond

	q := NewQueue(applier, testConfig())

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("item-%d", i)
		require.NoError(t, q.Submit(ctx, &Job{Op: OpSaveItem, Key: key}))
	}
	q.Stop()

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("item-%d", i)
		assert.Equal(t, []Op{OpSaveItem}, applier.appliedFor(key), "job %s not drained", key)
	}
}

func TestQueue_FlushDrainsAllShards(t *testing.T) {
	applier := newRecordingApplier()
	applier.delay = 2 * time.Millisecond

	q := NewQueue(applier, testConfig())
	defer q.Stop()

	ctx := context.Background()
	for i := 0; i < 8; i++ {
		key := fmt.Sprintf("col-%d", i)
		require.NoError(t, q.Submit(ctx, &Job{Op: OpSaveCollection, Key: key}))
	}
	require.NoError(t, q.Flush(ctx))

	for i := 0; i < 8; i++ {
		key := fmt.Sprintf("col-%d", i)
		assert.Equal(t, []Op{OpSaveCollection}, applier.appliedFor(key))
	}
}

func TestQueue_ShardForIsStable(t *testing.T) {
	q := NewQueue(newRecordingApplier(), testConfig())
	defer q.Stop()

	first := q.shardFor("col-42")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, q.shardFor("col-42"))
	}
}
