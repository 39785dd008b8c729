package transport

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	cerrors "github.com/c360/datasynth/errors"
	"github.com/c360/datasynth/natsclient"
)

// Core delivers messages over plain NATS publishes with no broker
// acknowledgement. Deliveries are reported complete as soon as they are
// written to the connection, which trades durability for throughput.
type Core struct {
	client *natsclient.Client

	mu sync.Mutex
	cb DeliveryCallback
}

// NewCore creates a best-effort transport over an established client.
func NewCore(client *natsclient.Client) (*Core, error) {
	if client == nil {
		return nil, cerrors.WrapInvalid(cerrors.ErrNoConnection,
			"transport", "NewCore", "nil client")
	}
	return &Core{client: client}, nil
}

// SetDeliveryCallback registers the completion callback.
func (t *Core) SetDeliveryCallback(cb DeliveryCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cb = cb
}

// Publish writes the message to the connection. The outcome, including
// write failures, is reported through the delivery callback so callers
// account for it the same way as windowed transports.
func (t *Core) Publish(topic string, key, payload []byte, headers map[string]string) error {
	msg := &nats.Msg{
		Subject: topic,
		Data:    payload,
		Header:  natsHeader(headers),
	}

	err := t.client.PublishMsg(context.Background(), msg)

	t.mu.Lock()
	cb := t.cb
	t.mu.Unlock()
	if cb != nil {
		cb(topic, key, err)
	}
	return nil
}

// Poll is a no-op; deliveries complete inside Publish.
func (t *Core) Poll(_ time.Duration) int { return 0 }

// Outstanding always reports zero in-flight deliveries.
func (t *Core) Outstanding() int { return 0 }

// Close has nothing to drain.
func (t *Core) Close(_ time.Duration) bool { return true }
