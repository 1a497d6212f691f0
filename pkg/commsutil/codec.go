package commsutil

import (
	"encoding/json"
	"errors"
)

// ErrEmptyPayload is returned when decoding a message without data.
var ErrEmptyPayload = errors.New("empty payload")

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v interface{}) error {
	if len(data) == 0 {
		return ErrEmptyPayload
	}
	return json.Unmarshal(data, v)
}
