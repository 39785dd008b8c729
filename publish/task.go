// Package publish turns domain entities into broker messages: JSON payloads
// keyed for partition ordering, carrying CloudEvents binary-mode headers, and
// delivered through a transport with drain-and-retry backpressure handling.
package publish

import (
	"fmt"

	"github.com/c360/datasynth/entity"
	cerrors "github.com/c360/datasynth/errors"
)

// Task is one message staged for delivery. Key and payload are encoded once
// at creation so retries and queue transfers never re-serialize.
type Task struct {
	Topic   string
	Key     []byte
	Payload []byte
}

// NewTask encodes an entity into a delivery task for the given topic.
func NewTask(topic string, e entity.Entity) (Task, error) {
	payload, err := entity.Marshal(e)
	if err != nil {
		return Task{}, cerrors.Wrap(err, "publish", "NewTask", "encoding for "+topic)
	}

	var key []byte
	if k := entity.Key(e); k != "" {
		key = []byte(k)
	}

	return Task{Topic: topic, Key: key, Payload: payload}, nil
}

// PublishFailedError reports a message abandoned after the drain-and-retry
// ceiling was exhausted.
type PublishFailedError struct {
	Topic    string
	Key      []byte
	Attempts int
	Err      error
}

func (e *PublishFailedError) Error() string {
	return fmt.Sprintf("publish to %s failed after %d attempts: %v", e.Topic, e.Attempts, e.Err)
}

func (e *PublishFailedError) Unwrap() error { return e.Err }
