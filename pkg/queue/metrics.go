package queue

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/datasynth/metric"
)

// queueMetrics holds Prometheus metrics for queue operations.
type queueMetrics struct {
	pushes  prometheus.Counter
	pops    prometheus.Counter
	rejects prometheus.Counter

	depth       prometheus.Gauge
	utilization prometheus.Gauge
}

// newQueueMetrics creates and registers queue metrics with the provided registry.
func newQueueMetrics(registry *metric.MetricsRegistry, name string) (*queueMetrics, error) {
	m := &queueMetrics{
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "datasynth",
			Subsystem:   "transfer_queue",
			Name:        "pushes_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of items pushed to the queue",
		}),
		pops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "datasynth",
			Subsystem:   "transfer_queue",
			Name:        "pops_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of items popped from the queue",
		}),
		rejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "datasynth",
			Subsystem:   "transfer_queue",
			Name:        "rejects_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of TryPush calls rejected at capacity",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "datasynth",
			Subsystem:   "transfer_queue",
			Name:        "depth",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Current number of items in the queue",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "datasynth",
			Subsystem:   "transfer_queue",
			Name:        "utilization",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Queue utilization as a fraction (0.0 to 1.0)",
		}),
	}

	if err := registry.RegisterCounter(name, "queue_pushes", m.pushes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "queue_pops", m.pops); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "queue_rejects", m.rejects); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "queue_depth", m.depth); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "queue_utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

// recordPush increments the push counter and updates depth/utilization.
func (m *queueMetrics) recordPush(depth, capacity int) {
	m.pushes.Inc()
	m.depth.Set(float64(depth))
	m.utilization.Set(float64(depth) / float64(capacity))
}

// recordPop adds to the pop counter and updates depth/utilization.
func (m *queueMetrics) recordPop(count, depth, capacity int) {
	m.pops.Add(float64(count))
	m.depth.Set(float64(depth))
	m.utilization.Set(float64(depth) / float64(capacity))
}

// recordReject increments the reject counter.
func (m *queueMetrics) recordReject() {
	m.rejects.Inc()
}
