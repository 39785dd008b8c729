package transport

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	cerrors "github.com/c360/datasynth/errors"
	"github.com/c360/datasynth/natsclient"
)

// DefaultMaxPending is the in-flight window for JetStream publishes.
const DefaultMaxPending = 10000

// pendingPublish tracks one in-flight JetStream publish.
type pendingPublish struct {
	future jetstream.PubAckFuture
	topic  string
	key    []byte
}

// JetStream delivers messages through asynchronous JetStream publishes with
// a bounded in-flight window. Completions are collected in publish order by
// Poll, mirroring a delivery-report poll loop.
type JetStream struct {
	js         jetstream.JetStream
	maxPending int

	mu      sync.Mutex
	pending []pendingPublish
	cb      DeliveryCallback
}

// JetStreamOption configures a JetStream transport.
type JetStreamOption func(*JetStream)

// WithMaxPending bounds the number of unacknowledged publishes.
func WithMaxPending(n int) JetStreamOption {
	return func(t *JetStream) {
		if n > 0 {
			t.maxPending = n
		}
	}
}

// NewJetStream creates a transport over an established client connection.
func NewJetStream(client *natsclient.Client, options ...JetStreamOption) (*JetStream, error) {
	if client == nil {
		return nil, cerrors.WrapInvalid(cerrors.ErrNoConnection,
			"transport", "NewJetStream", "nil client")
	}

	js, err := client.JetStream()
	if err != nil {
		return nil, cerrors.Wrap(err, "transport", "NewJetStream", "jetstream context")
	}

	t := &JetStream{
		js:         js,
		maxPending: DefaultMaxPending,
	}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

// SetDeliveryCallback registers the completion callback.
func (t *JetStream) SetDeliveryCallback(cb DeliveryCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cb = cb
}

// Publish enqueues one message. Returns errors.ErrBufferFull when the
// in-flight window is exhausted.
func (t *JetStream) Publish(topic string, key, payload []byte, headers map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) >= t.maxPending {
		return cerrors.ErrBufferFull
	}

	msg := &nats.Msg{
		Subject: topic,
		Data:    payload,
		Header:  natsHeader(headers),
	}

	future, err := t.js.PublishMsgAsync(msg)
	if err != nil {
		return cerrors.WrapTransient(err, "transport", "Publish", "async publish "+topic)
	}

	t.pending = append(t.pending, pendingPublish{future: future, topic: topic, key: key})
	return nil
}

// Poll collects completed deliveries in publish order. With a non-zero
// timeout it waits for at least the head of the window to complete.
func (t *JetStream) Poll(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	completed := 0

	for {
		t.mu.Lock()
		if len(t.pending) == 0 {
			t.mu.Unlock()
			return completed
		}
		head := t.pending[0]
		t.mu.Unlock()

		var err error
		select {
		case <-head.future.Ok():
		case err = <-head.future.Err():
		default:
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return completed
			}
			timer := time.NewTimer(remaining)
			select {
			case <-head.future.Ok():
			case err = <-head.future.Err():
			case <-timer.C:
				timer.Stop()
				return completed
			}
			timer.Stop()
		}

		t.mu.Lock()
		t.pending = t.pending[1:]
		cb := t.cb
		t.mu.Unlock()

		completed++
		if cb != nil {
			cb(head.topic, head.key, err)
		}
	}
}

// Outstanding returns the in-flight publish count.
func (t *JetStream) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Close drains the in-flight window, reporting whether it emptied in time.
func (t *JetStream) Close(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for t.Outstanding() > 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		t.Poll(remaining)
	}
	return true
}

// natsHeader converts flat string headers to the wire header form.
func natsHeader(headers map[string]string) nats.Header {
	if len(headers) == 0 {
		return nil
	}
	h := make(nats.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return h
}
