// Package transport abstracts message delivery to the broker. The publish
// channel drives a Transport without knowing whether deliveries are durable
// JetStream publishes, fire-and-forget core NATS publishes, or an in-memory
// double.
package transport

import "time"

// DeliveryCallback is invoked once per completed delivery. err is nil when
// the broker accepted the message.
type DeliveryCallback func(topic string, key []byte, err error)

// Transport delivers messages asynchronously within a bounded in-flight
// window. Publish returns errors.ErrBufferFull when the window is exhausted;
// the caller is expected to Poll to drain completions and retry.
type Transport interface {
	// Publish enqueues one message for delivery.
	Publish(topic string, key, payload []byte, headers map[string]string) error

	// Poll processes completed deliveries, invoking the delivery callback
	// for each, and returns how many completed. A zero timeout polls
	// without blocking.
	Poll(timeout time.Duration) int

	// Outstanding returns the number of in-flight deliveries.
	Outstanding() int

	// Close drains outstanding deliveries and reports whether all
	// completed within the timeout.
	Close(timeout time.Duration) bool

	// SetDeliveryCallback registers the completion callback. Must be
	// called before the first Publish.
	SetDeliveryCallback(cb DeliveryCallback)
}
