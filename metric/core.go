package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all pipeline-level metrics (not entity-specific)
type Metrics struct {
	// Pipeline metrics
	PipelineStatus       *prometheus.GaugeVec
	EntitiesRegistered   *prometheus.CounterVec
	RegistrationFailures *prometheus.CounterVec
	TasksSubmitted       *prometheus.CounterVec
	MessagesSent         *prometheus.CounterVec
	MessagesAcked        *prometheus.CounterVec
	MessagesFailed       *prometheus.CounterVec
	QueueDepth           *prometheus.GaugeVec
	DrainRetries         *prometheus.CounterVec
	FlushDuration        *prometheus.HistogramVec

	// NATS metrics
	NATSConnected      prometheus.Gauge
	NATSRTT            prometheus.Gauge
	NATSReconnects     prometheus.Counter
	NATSCircuitBreaker prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PipelineStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "datasynth",
				Subsystem: "pipeline",
				Name:      "status",
				Help:      "Pipeline status (0=stopped, 1=starting, 2=running, 3=draining, 4=failed)",
			},
			[]string{"pipeline"},
		),

		EntitiesRegistered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datasynth",
				Subsystem: "store",
				Name:      "entities_registered_total",
				Help:      "Total number of entities registered in the store",
			},
			[]string{"entity_type"},
		),

		RegistrationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datasynth",
				Subsystem: "store",
				Name:      "registration_failures_total",
				Help:      "Total number of rejected entity registrations",
			},
			[]string{"entity_type", "reason"},
		),

		TasksSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datasynth",
				Subsystem: "pipeline",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks submitted to the pipeline",
			},
			[]string{"topic"},
		),

		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datasynth",
				Subsystem: "publish",
				Name:      "sent_total",
				Help:      "Total number of messages handed to the transport",
			},
			[]string{"topic"},
		),

		MessagesAcked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datasynth",
				Subsystem: "publish",
				Name:      "acked_total",
				Help:      "Total number of messages acknowledged by the broker",
			},
			[]string{"topic"},
		),

		MessagesFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datasynth",
				Subsystem: "publish",
				Name:      "failed_total",
				Help:      "Total number of messages that exhausted delivery attempts",
			},
			[]string{"topic"},
		),

		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "datasynth",
				Subsystem: "queue",
				Name:      "depth",
				Help:      "Current number of tasks waiting in the transfer queue",
			},
			[]string{"topic"},
		),

		DrainRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datasynth",
				Subsystem: "publish",
				Name:      "drain_retries_total",
				Help:      "Total number of buffer-full drain-and-retry cycles",
			},
			[]string{"topic"},
		),

		FlushDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "datasynth",
				Subsystem: "publish",
				Name:      "flush_duration_seconds",
				Help:      "Time spent flushing outstanding messages on shutdown",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"topic"},
		),

		// NATS metrics
		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "datasynth",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "datasynth",
				Subsystem: "nats",
				Name:      "rtt_milliseconds",
				Help:      "NATS round-trip time in milliseconds",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "datasynth",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),

		NATSCircuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "datasynth",
				Subsystem: "nats",
				Name:      "circuit_breaker",
				Help:      "NATS circuit breaker status (0=closed, 1=open, 2=half-open)",
			},
		),
	}
}

// RecordPipelineStatus updates pipeline status metric
func (c *Metrics) RecordPipelineStatus(pipeline string, status int) {
	c.PipelineStatus.WithLabelValues(pipeline).Set(float64(status))
}

// RecordEntityRegistered increments the registered entity counter
func (c *Metrics) RecordEntityRegistered(entityType string) {
	c.EntitiesRegistered.WithLabelValues(entityType).Inc()
}

// RecordRegistrationFailure increments the rejected registration counter
func (c *Metrics) RecordRegistrationFailure(entityType, reason string) {
	c.RegistrationFailures.WithLabelValues(entityType, reason).Inc()
}

// RecordTaskSubmitted increments the submitted task counter
func (c *Metrics) RecordTaskSubmitted(topic string) {
	c.TasksSubmitted.WithLabelValues(topic).Inc()
}

// RecordMessageSent increments the sent message counter
func (c *Metrics) RecordMessageSent(topic string) {
	c.MessagesSent.WithLabelValues(topic).Inc()
}

// RecordMessagesAcked adds to the acknowledged message counter
func (c *Metrics) RecordMessagesAcked(topic string, n int) {
	c.MessagesAcked.WithLabelValues(topic).Add(float64(n))
}

// RecordMessageFailed increments the failed message counter
func (c *Metrics) RecordMessageFailed(topic string) {
	c.MessagesFailed.WithLabelValues(topic).Inc()
}

// RecordQueueDepth updates the transfer queue depth gauge
func (c *Metrics) RecordQueueDepth(topic string, depth int) {
	c.QueueDepth.WithLabelValues(topic).Set(float64(depth))
}

// RecordDrainRetry increments the drain-and-retry cycle counter
func (c *Metrics) RecordDrainRetry(topic string) {
	c.DrainRetries.WithLabelValues(topic).Inc()
}

// RecordFlushDuration records time spent in a shutdown flush
func (c *Metrics) RecordFlushDuration(topic string, duration time.Duration) {
	c.FlushDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSRTT updates NATS round-trip time
func (c *Metrics) RecordNATSRTT(rtt time.Duration) {
	c.NATSRTT.Set(float64(rtt.Milliseconds()))
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}

// RecordCircuitBreakerState updates circuit breaker status
func (c *Metrics) RecordCircuitBreakerState(state int) {
	c.NATSCircuitBreaker.Set(float64(state))
}
