// Package worker provides a generic bounded worker pool.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/datasynth/metric"
)

type poolState int

const (
	stateNew poolState = iota
	stateRunning
	stateStopped
)

// Pool fans work items of type T across a fixed set of workers feeding from
// a bounded channel. Submit drops when the channel is full; SubmitWait
// blocks, giving producers backpressure instead of loss.
type Pool[T any] struct {
	workers   int
	queueSize int
	processor func(context.Context, T) error

	work chan T
	wg   sync.WaitGroup

	mu    sync.Mutex
	state poolState

	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	registry *metric.MetricsRegistry
	prefix   string
	metrics  *poolMetrics
}

// Option configures a Pool at construction time.
type Option[T any] func(*Pool[T])

// WithMetricsRegistry exports pool gauges and counters under the given
// metric name prefix.
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.registry = registry
		p.prefix = prefix
	}
}

// NewPool builds a pool of the given size. Non-positive workers or queue
// size fall back to 4 workers and a queue of 1000. A nil processor panics;
// there is no meaningful zero value for it.
func NewPool[T any](workers, queueSize int, processor func(context.Context, T) error, options ...Option[T]) *Pool[T] {
	if processor == nil {
		panic(ErrNilProcessor)
	}
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	p := &Pool[T]{
		workers:   workers,
		queueSize: queueSize,
		processor: processor,
		work:      make(chan T, queueSize),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.registry != nil && p.prefix != "" {
		p.metrics = newPoolMetrics(p.registry, p.prefix)
	}
	return p
}

// Start launches the workers. The ctx bounds all processing; cancelling it
// stops workers even with items still queued.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateNew {
		return ErrPoolAlreadyStarted
	}
	p.state = stateRunning

	for range p.workers {
		p.wg.Add(1)
		go p.run(ctx)
	}
	if p.metrics != nil {
		p.wg.Add(1)
		go p.observe(ctx)
	}
	return nil
}

// Submit enqueues work without blocking. A full queue drops the item and
// returns ErrQueueFull.
func (p *Pool[T]) Submit(work T) error {
	if err := p.checkRunning(); err != nil {
		return err
	}

	select {
	case p.work <- work:
		p.noteSubmitted()
		return nil
	default:
		p.dropped.Add(1)
		p.metrics.incDropped()
		return ErrQueueFull
	}
}

// SubmitWait enqueues work, blocking while the queue is full.
func (p *Pool[T]) SubmitWait(ctx context.Context, work T) error {
	if err := p.checkRunning(); err != nil {
		return err
	}

	select {
	case p.work <- work:
		p.noteSubmitted()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes intake and waits for queued work to drain. It is idempotent
// and returns ErrStopTimeout when workers are still busy at the deadline.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateRunning {
		return nil
	}

	close(p.work)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.state = stateStopped
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
}

// Stats returns current pool counters.
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueSize:  p.queueSize,
		QueueDepth: len(p.work),
		Submitted:  p.submitted.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
	}
}

func (p *Pool[T]) checkRunning() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case stateNew:
		return ErrPoolNotStarted
	case stateStopped:
		return ErrPoolStopped
	}
	return nil
}

func (p *Pool[T]) noteSubmitted() {
	p.submitted.Add(1)
	if p.metrics != nil {
		p.metrics.submitted.Inc()
		p.metrics.queueDepth.Set(float64(len(p.work)))
	}
}

func (p *Pool[T]) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case work, ok := <-p.work:
			if !ok {
				return
			}
			start := time.Now()
			err := p.processor(ctx, work)

			p.processed.Add(1)
			if err != nil {
				p.failed.Add(1)
			}
			p.metrics.observeProcessed(err, time.Since(start))
		}
	}
}

// observe refreshes depth and utilization gauges once per second.
func (p *Pool[T]) observe(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth := float64(len(p.work))
			p.metrics.queueDepth.Set(depth)
			p.metrics.utilization.Set(depth / float64(p.queueSize))
		}
	}
}

// poolMetrics exports pool counters. Methods tolerate a nil receiver so
// callers need not branch on whether metrics are enabled.
type poolMetrics struct {
	queueDepth     prometheus.Gauge
	utilization    prometheus.Gauge
	submitted      prometheus.Counter
	processed      prometheus.Counter
	failed         prometheus.Counter
	dropped        prometheus.Counter
	processingTime *prometheus.HistogramVec
}

func newPoolMetrics(registry *metric.MetricsRegistry, prefix string) *poolMetrics {
	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: prefix + name, Help: help})
		_ = registry.RegisterGauge("worker_pool", prefix+name, g)
		return g
	}
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: prefix + name, Help: help})
		_ = registry.RegisterCounter("worker_pool", prefix+name, c)
		return c
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prefix + "_processing_duration_seconds",
		Help:    "Time spent processing work items",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"status"})
	_ = registry.RegisterHistogramVec("worker_pool", prefix+"_processing_duration_seconds", histogram)

	return &poolMetrics{
		queueDepth:     gauge("_queue_depth", "Current worker pool queue depth"),
		utilization:    gauge("_utilization", "Worker pool queue utilization, 0 to 1"),
		submitted:      counter("_submitted_total", "Work items submitted"),
		processed:      counter("_processed_total", "Work items processed"),
		failed:         counter("_failed_total", "Work items whose processor returned an error"),
		dropped:        counter("_dropped_total", "Work items dropped by a full queue"),
		processingTime: histogram,
	}
}

func (m *poolMetrics) incDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *poolMetrics) observeProcessed(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.processed.Inc()
	status := "success"
	if err != nil {
		m.failed.Inc()
		status = "error"
	}
	m.processingTime.WithLabelValues(status).Observe(d.Seconds())
}
