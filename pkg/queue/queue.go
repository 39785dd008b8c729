// Package queue provides a generic, thread-safe bounded FIFO transfer queue
// connecting producers to consumer goroutines.
//
// The queue applies backpressure: Push blocks while the queue is full, TryPush
// rejects immediately with ErrQueueFull, PushContext honors cancellation, and
// PushBatch transfers whole batches under one lock acquisition.
// Consumers drain with PopBatch, which blocks until at least one item is
// available or the queue is closed. After Close the queue drains remaining
// items before reporting exhaustion, so no accepted item is lost.
//
// Statistics are always collected for observability. Prometheus metrics can be
// optionally enabled via WithMetrics().
package queue

import (
	"context"
	"sync"

	"github.com/c360/datasynth/errors"
)

// Queue is a capacity-bounded FIFO for transferring items between producers
// and consumers. All methods are safe for concurrent use.
type Queue[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next push position
	tail     int // next pop position
	closed   bool

	stats   *Statistics   // always initialized
	metrics *queueMetrics // optional Prometheus metrics
	opts    *queueOptions[T]

	notEmpty *sync.Cond
	notFull  *sync.Cond
}

// New creates a bounded queue with the given capacity.
// Returns an error for non-positive capacity or failed metrics registration.
func New[T any](capacity int, options ...Option[T]) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Queue", "New", "capacity must be positive")
	}

	opts := applyOptions(options...)

	var metrics *queueMetrics
	if opts.metricsReg != nil && opts.name != "" {
		var err error
		metrics, err = newQueueMetrics(opts.metricsReg, opts.name)
		if err != nil {
			return nil, errors.WrapTransient(err, "Queue", "New", "metrics registration")
		}
	}

	q := &Queue[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)

	return q, nil
}

// Push adds an item, blocking while the queue is full.
// Returns an error if the queue is closed before space becomes available.
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == q.capacity && !q.closed {
		q.stats.Blocked()
		q.notFull.Wait()
	}

	if q.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Queue", "Push", "queue closed")
	}

	q.push(item)
	return nil
}

// PushBatch adds items in order, taking the lock once and blocking while
// the queue is full. It returns how many items were accepted; the count is
// short only when the queue closes mid-batch. Batches larger than the
// capacity are accepted as consumers make room.
func (q *Queue[T]) PushBatch(items []T) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range items {
		for q.size == q.capacity && !q.closed {
			q.stats.Blocked()
			q.notFull.Wait()
		}
		if q.closed {
			return i, errors.WrapInvalid(errors.ErrAlreadyStopped, "Queue", "PushBatch", "queue closed")
		}
		q.push(item)
	}
	return len(items), nil
}

// TryPush adds an item without blocking.
// Returns ErrQueueFull when at capacity so callers can apply their own policy.
func (q *Queue[T]) TryPush(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Queue", "TryPush", "queue closed")
	}

	if q.size == q.capacity {
		q.stats.Reject()
		if q.metrics != nil {
			q.metrics.recordReject()
		}
		return errors.ErrQueueFull
	}

	q.push(item)
	return nil
}

// PushContext adds an item, blocking while full, and aborts when ctx is done.
func (q *Queue[T]) PushContext(ctx context.Context, item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Queue", "PushContext", "queue closed")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	done := make(chan struct{})
	defer close(done)

	var ctxWg sync.WaitGroup
	ctxWg.Add(1)

	// Broadcast is safe without holding the mutex, so the watcher can wake
	// the blocked Wait below when the context is cancelled.
	go func() {
		defer ctxWg.Done()
		select {
		case <-ctx.Done():
			q.notFull.Broadcast()
		case <-done:
		}
	}()

	for q.size == q.capacity && !q.closed {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		q.stats.Blocked()
		q.notFull.Wait()

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if q.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Queue", "PushContext", "queue closed during wait")
	}

	q.push(item)
	return nil
}

// push appends under the lock. Callers hold q.mu.
func (q *Queue[T]) push(item T) {
	q.items[q.head] = item
	q.head = (q.head + 1) % q.capacity
	q.size++

	q.stats.Push()
	q.stats.UpdateDepth(int64(q.size))
	if q.metrics != nil {
		q.metrics.recordPush(q.size, q.capacity)
	}

	q.notEmpty.Signal()
}

// PopBatch removes and returns up to max items in FIFO order.
// It blocks until at least one item is available or the queue is closed.
// After close, remaining items are drained first; once empty it returns
// (nil, false) to signal exhaustion.
func (q *Queue[T]) PopBatch(max int) ([]T, bool) {
	if max <= 0 {
		return nil, true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	if q.size == 0 {
		// closed and fully drained
		return nil, false
	}

	count := max
	if count > q.size {
		count = q.size
	}

	result := make([]T, count)
	var zero T
	for i := 0; i < count; i++ {
		result[i] = q.items[q.tail]
		q.items[q.tail] = zero // clear for GC
		q.tail = (q.tail + 1) % q.capacity
		q.size--
		q.stats.Pop()
	}

	q.stats.UpdateDepth(int64(q.size))
	if q.metrics != nil {
		q.metrics.recordPop(count, q.size, q.capacity)
	}

	for i := 0; i < count; i++ {
		q.notFull.Signal()
	}

	return result, true
}

// Len returns the current number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return q.capacity // immutable, no lock needed
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Stats returns queue statistics (always available for observability).
func (q *Queue[T]) Stats() *Statistics {
	return q.stats
}

// Close marks the queue closed and wakes all waiters. Queued items remain
// available to PopBatch until drained. Close is idempotent.
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	q.notEmpty.Broadcast()
	q.notFull.Broadcast()

	return nil
}
