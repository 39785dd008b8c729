package transport

import (
	"sync"
	"time"

	cerrors "github.com/c360/datasynth/errors"
)

// Delivery is one message accepted by the Memory transport.
type Delivery struct {
	Topic   string
	Key     []byte
	Payload []byte
	Headers map[string]string
}

// Memory is an in-process transport for tests and dry runs. Deliveries are
// buffered until Poll completes them. Backpressure and delivery failures can
// be scripted per call.
type Memory struct {
	mu         sync.Mutex
	cb         DeliveryCallback
	pending    []Delivery
	delivered  []Delivery
	fullRuns   int
	failNext   []error
	maxPending int
	pollCalls  int
}

// NewMemory creates an in-process transport with an effectively unbounded
// window.
func NewMemory() *Memory {
	return &Memory{maxPending: 1 << 30}
}

// SetDeliveryCallback registers the completion callback.
func (t *Memory) SetDeliveryCallback(cb DeliveryCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cb = cb
}

// RejectNext makes the next n Publish calls fail with errors.ErrBufferFull.
func (t *Memory) RejectNext(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fullRuns = n
}

// FailNext queues delivery errors reported for upcoming completions, in
// order. A nil entry completes successfully.
func (t *Memory) FailNext(errs ...error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failNext = append(t.failNext, errs...)
}

// SetMaxPending bounds the in-flight window.
func (t *Memory) SetMaxPending(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxPending = n
}

// Publish buffers one message for delivery.
func (t *Memory) Publish(topic string, key, payload []byte, headers map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fullRuns > 0 {
		t.fullRuns--
		return cerrors.ErrBufferFull
	}
	if len(t.pending) >= t.maxPending {
		return cerrors.ErrBufferFull
	}

	t.pending = append(t.pending, Delivery{
		Topic:   topic,
		Key:     key,
		Payload: payload,
		Headers: headers,
	})
	return nil
}

// Poll completes every buffered delivery.
func (t *Memory) Poll(_ time.Duration) int {
	t.mu.Lock()
	t.pollCalls++
	batch := t.pending
	t.pending = nil
	cb := t.cb

	errs := make([]error, len(batch))
	for i := range batch {
		if len(t.failNext) > 0 {
			errs[i] = t.failNext[0]
			t.failNext = t.failNext[1:]
		}
		if errs[i] == nil {
			t.delivered = append(t.delivered, batch[i])
		}
	}
	t.mu.Unlock()

	for i, d := range batch {
		if cb != nil {
			cb(d.Topic, d.Key, errs[i])
		}
	}
	return len(batch)
}

// Outstanding returns the buffered delivery count.
func (t *Memory) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Close completes everything still buffered.
func (t *Memory) Close(_ time.Duration) bool {
	t.Poll(0)
	return true
}

// PollCalls returns how many times Poll has been invoked.
func (t *Memory) PollCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pollCalls
}

// Delivered returns a copy of every successfully completed delivery.
func (t *Memory) Delivered() []Delivery {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]Delivery, len(t.delivered))
	copy(result, t.delivered)
	return result
}
