package publish

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	cerrors "github.com/c360/datasynth/errors"
	"github.com/c360/datasynth/metric"
	"github.com/c360/datasynth/transport"
)

// Channel defaults.
const (
	// DefaultPollInterval is the number of sends between non-blocking
	// delivery polls.
	DefaultPollInterval = 10000

	// DefaultRetryCeiling bounds drain-and-retry cycles per message.
	DefaultRetryCeiling = 5

	// drainWait is how long one backpressure drain cycle blocks.
	drainWait = time.Second

	// Flush timeout scaling: base plus one second per DefaultFlushScale
	// sent, capped at the maximum.
	DefaultFlushBase  = 30 * time.Second
	DefaultFlushMax   = 300 * time.Second
	DefaultFlushScale = 10000
)

// Channel publishes tasks for a single topic through a transport, applying
// CloudEvents headers and drain-and-retry backpressure handling.
type Channel struct {
	topic       string
	tr          transport.Transport
	headers     *HeaderBuilder
	cloudEvents bool

	pollInterval int
	retryCeiling int
	flushBase    time.Duration
	flushMax     time.Duration
	flushScale   int

	sinceLastPoll atomic.Int64

	sent   atomic.Int64
	acked  atomic.Int64
	failed atomic.Int64

	metrics *metric.Metrics
	logger  *slog.Logger
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithPollInterval sets how many sends pass between non-blocking polls.
func WithPollInterval(n int) ChannelOption {
	return func(c *Channel) {
		if n > 0 {
			c.pollInterval = n
		}
	}
}

// WithRetryCeiling bounds drain-and-retry cycles per message.
func WithRetryCeiling(n int) ChannelOption {
	return func(c *Channel) {
		if n > 0 {
			c.retryCeiling = n
		}
	}
}

// WithFlushTimeouts sets the base and maximum drain deadlines used by
// Flush. Non-positive values keep the defaults.
func WithFlushTimeouts(base, max time.Duration) ChannelOption {
	return func(c *Channel) {
		if base > 0 {
			c.flushBase = base
		}
		if max > 0 {
			c.flushMax = max
		}
	}
}

// WithFlushScale sets how many sent messages add one second to the flush
// deadline.
func WithFlushScale(n int) ChannelOption {
	return func(c *Channel) {
		if n > 0 {
			c.flushScale = n
		}
	}
}

// WithCloudEvents toggles CloudEvents header emission.
func WithCloudEvents(enabled bool) ChannelOption {
	return func(c *Channel) {
		c.cloudEvents = enabled
	}
}

// WithChannelMetrics enables publish counters on the given collector.
func WithChannelMetrics(m *metric.Metrics) ChannelOption {
	return func(c *Channel) {
		c.metrics = m
	}
}

// WithChannelLogger sets the channel logger.
func WithChannelLogger(logger *slog.Logger) ChannelOption {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChannel creates a publish channel for one topic. The channel installs
// itself as the transport's delivery callback.
func NewChannel(topic string, tr transport.Transport, options ...ChannelOption) *Channel {
	c := &Channel{
		topic:        topic,
		tr:           tr,
		headers:      NewHeaderBuilder(),
		cloudEvents:  true,
		pollInterval: DefaultPollInterval,
		retryCeiling: DefaultRetryCeiling,
		flushBase:    DefaultFlushBase,
		flushMax:     DefaultFlushMax,
		flushScale:   DefaultFlushScale,
		logger:       slog.Default(),
	}
	for _, option := range options {
		option(c)
	}

	tr.SetDeliveryCallback(c.onDelivery)
	return c
}

// Topic returns the channel's topic.
func (c *Channel) Topic() string { return c.topic }

// onDelivery accounts for one completed delivery.
func (c *Channel) onDelivery(topic string, key []byte, err error) {
	if err != nil {
		c.failed.Add(1)
		if c.metrics != nil {
			c.metrics.RecordMessageFailed(topic)
		}
		c.logger.Warn("delivery failed",
			"topic", topic,
			"key", string(key),
			"error", err)
		return
	}

	c.acked.Add(1)
	if c.metrics != nil {
		c.metrics.RecordMessagesAcked(topic, 1)
	}
}

// Send publishes one task. When the transport window is full it drains
// completions and retries, up to the retry ceiling. Send is safe for
// concurrent senders; per-key ordering is only guaranteed with a single
// sender per channel.
func (c *Channel) Send(task Task) error {
	var headers map[string]string
	if c.cloudEvents {
		headers = c.headers.Build(c.topic, task.Key)
	}

	attempts := 0
	for {
		err := c.tr.Publish(c.topic, task.Key, task.Payload, headers)
		if err == nil {
			break
		}
		if !errors.Is(err, cerrors.ErrBufferFull) {
			return cerrors.Wrap(err, "publish", "Send", "publish to "+c.topic)
		}

		attempts++
		if c.metrics != nil {
			c.metrics.RecordDrainRetry(c.topic)
		}
		if attempts > c.retryCeiling {
			return &PublishFailedError{
				Topic:    c.topic,
				Key:      task.Key,
				Attempts: attempts,
				Err:      cerrors.ErrBufferFull,
			}
		}
		c.tr.Poll(drainWait)
	}

	c.sent.Add(1)
	if c.metrics != nil {
		c.metrics.RecordMessageSent(c.topic)
	}

	if c.sinceLastPoll.Add(1)%int64(c.pollInterval) == 0 {
		c.tr.Poll(0)
	}
	return nil
}

// FlushTimeout scales the drain deadline with load using the default
// tuning: a 30 second base plus one second per 10K messages sent, capped
// at five minutes.
func FlushTimeout(sent int64) time.Duration {
	timeout := DefaultFlushBase + time.Duration(sent/DefaultFlushScale)*time.Second
	if timeout > DefaultFlushMax {
		timeout = DefaultFlushMax
	}
	return timeout
}

// FlushTimeout returns the channel's adaptive drain deadline for the
// current sent count, using the configured base, scale and cap.
func (c *Channel) FlushTimeout() time.Duration {
	timeout := c.flushBase + time.Duration(c.sent.Load()/int64(c.flushScale))*time.Second
	if timeout > c.flushMax {
		timeout = c.flushMax
	}
	return timeout
}

// Flush drains outstanding deliveries, waiting up to the adaptive timeout
// or the context deadline, whichever comes first.
func (c *Channel) Flush(ctx context.Context) error {
	timeout := c.FlushTimeout()
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	started := time.Now()
	drained := c.tr.Close(timeout)
	elapsed := time.Since(started)

	if c.metrics != nil {
		c.metrics.RecordFlushDuration(c.topic, elapsed)
	}

	if !drained {
		c.logger.Warn("flush timeout",
			"topic", c.topic,
			"outstanding", c.tr.Outstanding(),
			"timeout", timeout)
		return cerrors.WrapTransient(cerrors.ErrConnectionTimeout,
			"publish", "Flush", "draining "+c.topic)
	}
	return nil
}

// Summary is a snapshot of channel delivery accounting.
type Summary struct {
	Topic  string `json:"topic"`
	Sent   int64  `json:"sent"`
	Acked  int64  `json:"acked"`
	Failed int64  `json:"failed"`
}

// Stats returns the current delivery accounting.
func (c *Channel) Stats() Summary {
	return Summary{
		Topic:  c.topic,
		Sent:   c.sent.Load(),
		Acked:  c.acked.Load(),
		Failed: c.failed.Load(),
	}
}
