// Package mirror provides the sharded replication queue that replays local
// writes against the remote store. FIFO order is guaranteed per key while
// shards run in parallel, so two writes to the same record never reorder but
// unrelated records replicate concurrently.
//
// Contract: callers must not invoke Submit concurrently for the same key.
// Per-key FIFO relies on that external serialisation.
package mirror

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/rankstack/rankstack-sync/internal/model"
)

type queued struct {
	ctx context.Context
	job *Job
	// barrier is non-nil for sentinel entries; the worker closes it instead
	// of applying anything.
	barrier chan struct{}
}

// Queue executes Jobs on worker goroutines partitioned by a stable hash of
// the record key.
type Queue struct {
	cfg     Config
	applier Applier
	queues  []chan queued

	done   chan struct{}
	closed uint32

	wg sync.WaitGroup
}

// NewQueue constructs the queue and starts its shard workers.
func NewQueue(applier Applier, cfg Config) *Queue {
	cfg = cfg.withDefaults()
	q := &Queue{
		cfg:     cfg,
		applier: applier,
		queues:  make([]chan queued, cfg.Shards),
		done:    make(chan struct{}),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queued, cfg.QueueSize)
		q.queues[i] = ch
		q.wg.Add(1)
		go q.runWorker(i, ch)
	}
	return q
}

// Submit enqueues job for the shard derived from job.Key.
//
//   - Returns nil on success.
//   - Returns ErrQueueClosed if the queue is stopped.
//   - Returns *QueueFullError if the shard is still full after EnqueueTimeout.
//   - Returns ctx.Err() if the caller context is cancelled first.
func (q *Queue) Submit(ctx context.Context, job *Job) error {
	if atomic.LoadUint32(&q.closed) == 1 {
		return ErrQueueClosed
	}
	// Stop() may have closed done before flipping was observed above.
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	shard := q.shardFor(job.Key)
	ch := q.queues[shard]

	timer := time.NewTimer(q.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queued{ctx: ctx, job: job}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier waits until every job submitted before it for key has completed.
func (q *Queue) Barrier(ctx context.Context, key string) error {
	return q.barrierShard(ctx, q.shardFor(key))
}

// Flush drains every shard. It returns once all jobs submitted before the
// call have been applied, or the context expires.
func (q *Queue) Flush(ctx context.Context) error {
	for i := range q.queues {
		if err := q.barrierShard(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) barrierShard(ctx context.Context, shard int) error {
	if atomic.LoadUint32(&q.closed) == 1 {
		return ErrQueueClosed
	}
	done := make(chan struct{})
	// No enqueue timeout here: a barrier is a wait by definition, bounded by
	// the caller's context.
	select {
	case q.queues[shard] <- queued{ctx: ctx, barrier: done}:
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop signals every worker to finish draining its queue, waits for them to
// terminate, and returns. Idempotent and safe for concurrent use.
func (q *Queue) Stop() {
	if !atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		return
	}
	q.cfg.Log.Info().Int("shards", q.cfg.Shards).Msg("mirror: stopping queue, draining shards")
	close(q.done)
	q.wg.Wait()
	q.cfg.Log.Info().Msg("mirror: queue stopped, all shards drained")
}

// Close lets Queue satisfy io.Closer.
func (q *Queue) Close() error {
	q.Stop()
	return nil
}

func (q *Queue) runWorker(idx int, ch <-chan queued) {
	defer q.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			q.cfg.Log.Error().Int("shard", idx).Interface("panic", r).Msg("mirror: worker panic")
		}
	}()

	label := labelFor(idx)

	for {
		select {
		case item := <-ch:
			if item.barrier != nil {
				close(item.barrier)
				continue
			}
			if item.job == nil {
				continue
			}

			// Honour caller context so a cancelled job doesn't stall the shard.
			select {
			case <-item.ctx.Done():
				q.fail(label, item.ctx.Err())
			default:
				q.apply(label, item)
			}

			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-q.done:
			q.drain(idx, label, ch)
			return
		}
	}
}

func (q *Queue) apply(label string, item queued) {
	attempts := 0
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = q.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = q.cfg.MaxInterval
	exp.Reset()

	for {
		start := time.Now()
		err := q.applier.Apply(item.ctx, item.job)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil {
			return
		}
		if !retryable(err) {
			q.fail(label, err)
			return
		}
		if attempts >= q.cfg.MaxAttempts-1 {
			q.fail(label, err)
			return
		}

		attempts++
		select {
		case <-time.After(exp.NextBackOff()):
		case <-q.done:
			return
		case <-item.ctx.Done():
			q.fail(label, item.ctx.Err())
			return
		}
	}
}

// drain runs the remaining jobs once each, preserving FIFO, then exits.
func (q *Queue) drain(idx int, label string, ch <-chan queued) {
	if n := len(ch); n > 0 {
		q.cfg.Log.Info().Int("shard", idx).Int("jobs", n).Msg("mirror: draining remaining jobs")
	}
	for {
		select {
		case item := <-ch:
			if item.barrier != nil {
				close(item.barrier)
				continue
			}
			if item.job != nil {
				if err := q.applier.Apply(item.ctx, item.job); err != nil {
					q.fail(label, err)
				}
			}
		default:
			queueDepth.WithLabelValues(label).Set(0)
			return
		}
	}
}

func (q *Queue) fail(label string, err error) {
	if err == nil {
		return
	}
	failuresTotal.WithLabelValues(label).Inc()
	if q.cfg.ErrorHandler == nil {
		return
	}
	func() {
		// Guard against panics in the user-supplied handler.
		defer func() {
			if r := recover(); r != nil {
				q.cfg.Log.Error().Interface("panic", r).Msg("mirror: error handler panic")
			}
		}()
		q.cfg.ErrorHandler(err)
	}()
}

func (q *Queue) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % q.cfg.Shards
}

// retryable reports whether a failure might succeed on replay. Deterministic
// domain errors never will; everything else is assumed transient.
func retryable(err error) bool {
	if model.IsValidation(err) {
		return false
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrDuplicateID) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
