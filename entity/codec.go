package entity

import (
	jsoniter "github.com/json-iterator/go"

	cerrors "github.com/c360/datasynth/errors"
)

var codec = jsoniter.ConfigFastest

// Marshal encodes an entity to its JSON wire form.
func Marshal(e Entity) ([]byte, error) {
	payload, err := codec.Marshal(e)
	if err != nil {
		return nil, cerrors.Wrap(err, "entity", "Marshal",
			"encoding "+string(e.EntityType()))
	}
	return payload, nil
}

// Unmarshal decodes JSON wire data into the given entity.
func Unmarshal(data []byte, e Entity) error {
	if err := codec.Unmarshal(data, e); err != nil {
		return cerrors.WrapInvalid(err, "entity", "Unmarshal",
			"decoding "+string(e.EntityType()))
	}
	return nil
}
