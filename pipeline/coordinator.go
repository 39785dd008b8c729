package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/c360/datasynth/entity"
	cerrors "github.com/c360/datasynth/errors"
	"github.com/c360/datasynth/metric"
	"github.com/c360/datasynth/pkg/queue"
	"github.com/c360/datasynth/publish"
)

// Coordinator defaults.
const (
	// DefaultQueueCapacity bounds each per-topic transfer queue.
	DefaultQueueCapacity = 8192

	// DefaultTransferBatch sizes queue transfer on both sides: producers
	// stage this many tasks before handing them to the queue, and senders
	// drain at most this many per wakeup.
	DefaultTransferBatch = 1024

	// DefaultSenders is the per-topic sender parallelism degree.
	DefaultSenders = 1
)

// topicState holds the per-topic delivery path.
type topicState struct {
	queue     *queue.Queue[publish.Task]
	channel   *publish.Channel
	submitted atomic.Int64
	abandoned atomic.Int64

	stagedMu sync.Mutex
	staged   []publish.Task
	draining bool
}

// Coordinator routes tasks to per-topic transfer queues. Producers stage
// tasks and push them one batch at a time; sender goroutines drain each
// queue in batches and feed a publish channel. Shutdown stops intake,
// flushes staged batches, drains every queue, then flushes every channel.
type Coordinator struct {
	topics map[string]*topicState

	queueCapacity int
	batchSize     int
	senders       int

	group    *errgroup.Group
	started  atomic.Bool
	stopping atomic.Bool

	shutdownOnce sync.Once
	finalSummary Summary
	finalErr     error

	metrics  *metric.Metrics
	registry *metric.MetricsRegistry
	logger   *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithQueueCapacity bounds the per-topic transfer queues.
func WithQueueCapacity(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.queueCapacity = n
		}
	}
}

// WithTransferBatch sets the queue transfer batch size: how many tasks
// producers stage before pushing, and how many a sender drains per wakeup.
func WithTransferBatch(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithSenders sets the per-topic sender parallelism degree. Degrees above
// one trade per-key ordering for throughput.
func WithSenders(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.senders = n
		}
	}
}

// WithMetrics enables pipeline counters on the given collector.
func WithMetrics(m *metric.Metrics) CoordinatorOption {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithRegistry enables transfer queue gauges on the given registry.
func WithRegistry(r *metric.MetricsRegistry) CoordinatorOption {
	return func(c *Coordinator) {
		c.registry = r
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates a coordinator over the given publish channels,
// keyed by topic.
func NewCoordinator(channels map[string]*publish.Channel, options ...CoordinatorOption) (*Coordinator, error) {
	if len(channels) == 0 {
		return nil, cerrors.WrapInvalid(cerrors.ErrMissingConfig,
			"pipeline", "NewCoordinator", "no channels")
	}

	c := &Coordinator{
		topics:        make(map[string]*topicState, len(channels)),
		queueCapacity: DefaultQueueCapacity,
		batchSize:     DefaultTransferBatch,
		senders:       DefaultSenders,
		logger:        slog.Default(),
	}
	for _, option := range options {
		option(c)
	}

	for topic, channel := range channels {
		var queueOptions []queue.Option[publish.Task]
		if c.registry != nil {
			queueOptions = append(queueOptions, queue.WithMetrics[publish.Task](c.registry, topic))
		}
		q, err := queue.New(c.queueCapacity, queueOptions...)
		if err != nil {
			return nil, cerrors.Wrap(err, "pipeline", "NewCoordinator", "queue for "+topic)
		}
		c.topics[topic] = &topicState{queue: q, channel: channel}
	}
	return c, nil
}

// Start launches the configured number of sender goroutines per topic.
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return cerrors.ErrAlreadyStarted
	}

	c.group, ctx = errgroup.WithContext(ctx)
	for topic, state := range c.topics {
		for i := 0; i < c.senders; i++ {
			c.group.Go(func() error {
				return c.send(ctx, topic, state)
			})
		}
	}

	c.logger.Info("pipeline started", "topics", len(c.topics), "senders", c.senders)
	return nil
}

// Submit routes one entity to its topic, staging tasks and handing them to
// the transfer queue one batch at a time. The queue push blocks when the
// queue is full. Entities without a topic are rejected.
func (c *Coordinator) Submit(e entity.Entity) error {
	if !c.started.Load() {
		return cerrors.ErrNotStarted
	}
	if c.stopping.Load() {
		return cerrors.ErrShuttingDown
	}

	topic, ok := Route(e)
	if !ok {
		return cerrors.WrapInvalid(cerrors.ErrInvalidConfig,
			"pipeline", "Submit", "no topic for "+string(e.EntityType()))
	}
	state, ok := c.topics[topic]
	if !ok {
		return cerrors.WrapInvalid(cerrors.ErrMissingConfig,
			"pipeline", "Submit", "no channel for "+topic)
	}

	task, err := publish.NewTask(topic, e)
	if err != nil {
		return err
	}

	state.stagedMu.Lock()
	if state.draining {
		state.stagedMu.Unlock()
		return cerrors.ErrShuttingDown
	}
	state.staged = append(state.staged, task)
	var batch []publish.Task
	if len(state.staged) >= c.batchSize {
		batch = state.staged
		state.staged = nil
	}
	state.stagedMu.Unlock()

	state.submitted.Add(1)
	if c.metrics != nil {
		c.metrics.RecordTaskSubmitted(topic)
	}

	if batch != nil {
		return c.transfer(topic, state, batch)
	}
	return nil
}

// transfer hands one staged batch to the topic queue. Tasks refused by a
// closing queue count as abandoned so shutdown accounting stays complete.
func (c *Coordinator) transfer(topic string, state *topicState, batch []publish.Task) error {
	pushed, err := state.queue.PushBatch(batch)
	if err != nil {
		state.abandoned.Add(int64(len(batch) - pushed))
		return cerrors.Wrap(err, "pipeline", "transfer", "queue transfer for "+topic)
	}
	return nil
}

// send drains one topic queue until it is closed and empty. Abandoned
// messages are counted, never fatal: a struggling topic degrades instead of
// crashing the run.
func (c *Coordinator) send(_ context.Context, topic string, state *topicState) error {
	for {
		batch, ok := state.queue.PopBatch(c.batchSize)
		if !ok {
			return nil
		}

		for _, task := range batch {
			if err := state.channel.Send(task); err != nil {
				state.abandoned.Add(1)
				if c.metrics != nil {
					c.metrics.RecordMessageFailed(topic)
				}
				c.logger.Error("message abandoned",
					"topic", topic,
					"key", string(task.Key),
					"error", err)
			}
		}

		if c.metrics != nil {
			c.metrics.RecordQueueDepth(topic, state.queue.Len())
		}
	}
}

// Shutdown stops intake, drains every transfer queue, flushes every channel
// and returns the final delivery accounting. Safe to call more than once;
// later calls return the first result.
func (c *Coordinator) Shutdown(ctx context.Context) (Summary, error) {
	c.shutdownOnce.Do(func() {
		c.stopping.Store(true)

		// Staged tasks cross to the queues before they close, so nothing
		// accepted by Submit is lost.
		for topic, state := range c.topics {
			state.stagedMu.Lock()
			state.draining = true
			batch := state.staged
			state.staged = nil
			state.stagedMu.Unlock()

			if len(batch) > 0 {
				if err := c.transfer(topic, state, batch); err != nil {
					c.logger.Error("staged flush failed", "topic", topic, "error", err)
				}
			}
		}

		for _, state := range c.topics {
			_ = state.queue.Close()
		}

		if c.group != nil {
			_ = c.group.Wait()
		}

		var flushErrs []error
		for topic, state := range c.topics {
			if err := state.channel.Flush(ctx); err != nil {
				flushErrs = append(flushErrs, err)
				c.logger.Warn("flush incomplete", "topic", topic, "error", err)
			}
		}

		c.finalSummary = c.summarize()
		c.finalErr = stderrors.Join(flushErrs...)

		c.logger.Info("pipeline stopped",
			"submitted", c.finalSummary.Submitted,
			"sent", c.finalSummary.Sent,
			"acked", c.finalSummary.Acked,
			"failed", c.finalSummary.Failed)
	})
	return c.finalSummary, c.finalErr
}

// TopicSummary is the final accounting for one topic.
type TopicSummary struct {
	Topic     string `json:"topic"`
	Submitted int64  `json:"submitted"`
	Sent      int64  `json:"sent"`
	Acked     int64  `json:"acked"`
	Failed    int64  `json:"failed"`
}

// Summary is the final accounting for a run. Failed counts both broker
// delivery failures and messages abandoned at the retry ceiling, so for a
// drained pipeline Acked plus Failed equals Submitted.
type Summary struct {
	Topics    []TopicSummary `json:"topics"`
	Submitted int64          `json:"submitted"`
	Sent      int64          `json:"sent"`
	Acked     int64          `json:"acked"`
	Failed    int64          `json:"failed"`
}

func (c *Coordinator) summarize() Summary {
	var summary Summary

	names := make([]string, 0, len(c.topics))
	for topic := range c.topics {
		names = append(names, topic)
	}
	sort.Strings(names)

	for _, topic := range names {
		state := c.topics[topic]
		stats := state.channel.Stats()
		ts := TopicSummary{
			Topic:     topic,
			Submitted: state.submitted.Load(),
			Sent:      stats.Sent,
			Acked:     stats.Acked,
			Failed:    stats.Failed + state.abandoned.Load(),
		}
		summary.Topics = append(summary.Topics, ts)
		summary.Submitted += ts.Submitted
		summary.Sent += ts.Sent
		summary.Acked += ts.Acked
		summary.Failed += ts.Failed
	}
	return summary
}
