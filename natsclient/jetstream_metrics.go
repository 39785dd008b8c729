package natsclient

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/datasynth/metric"
)

// streamMetrics exports per-stream gauges for streams this client created
// or fetched. All methods tolerate a nil receiver so the client can call
// them unconditionally when metrics are disabled.
type streamMetrics struct {
	messages *prometheus.GaugeVec
	bytes    *prometheus.GaugeVec
	active   *prometheus.GaugeVec
	errors   *prometheus.CounterVec

	mu      sync.RWMutex
	streams map[string]jetstream.Stream
}

func newStreamMetrics(registry *metric.MetricsRegistry) (*streamMetrics, error) {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "datasynth",
			Subsystem: "jetstream",
			Name:      name,
			Help:      help,
		}, []string{"stream"})
	}

	m := &streamMetrics{
		messages: gauge("stream_messages", "Messages currently held by the stream"),
		bytes:    gauge("stream_bytes", "Storage bytes used by the stream"),
		active:   gauge("stream_state", "Stream reachability (1 reachable, 0 not)"),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datasynth",
			Subsystem: "jetstream",
			Name:      "operation_errors_total",
			Help:      "JetStream operation errors by operation",
		}, []string{"operation"}),
		streams: make(map[string]jetstream.Stream),
	}

	for name, g := range map[string]*prometheus.GaugeVec{
		"stream_messages": m.messages,
		"stream_bytes":    m.bytes,
		"stream_state":    m.active,
	} {
		if err := registry.RegisterGaugeVec("jetstream", name, g); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterCounterVec("jetstream", "errors", m.errors); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *streamMetrics) trackStream(name string, stream jetstream.Stream) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.streams[name] = stream
	m.mu.Unlock()
	m.active.WithLabelValues(name).Set(1)
}

func (m *streamMetrics) recordError(operation string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(operation).Inc()
}

// refresh pulls stream info for every tracked stream. An unreachable stream
// flips its state gauge to zero and keeps its last counts.
func (m *streamMetrics) refresh(ctx context.Context) {
	m.mu.RLock()
	streams := make(map[string]jetstream.Stream, len(m.streams))
	for name, s := range m.streams {
		streams[name] = s
	}
	m.mu.RUnlock()

	for name, stream := range streams {
		info, err := stream.Info(ctx)
		if err != nil {
			m.active.WithLabelValues(name).Set(0)
			continue
		}
		m.messages.WithLabelValues(name).Set(float64(info.State.Msgs))
		m.bytes.WithLabelValues(name).Set(float64(info.State.Bytes))
		m.active.WithLabelValues(name).Set(1)
	}
}

// startPoller refreshes stream stats on the given interval until the
// returned cancel function is called.
func (m *streamMetrics) startPoller(ctx context.Context, interval time.Duration) context.CancelFunc {
	if m == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refresh(ctx)
			}
		}
	}()
	return cancel
}
