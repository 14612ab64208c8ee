package codec

import (
	"encoding/json"
	"fmt"
)

// JSON stores values as JSON documents.
type JSON[T any] struct{}

// Name implements the Codec interface.
func (JSON[T]) Name() string {
	return "json"
}

// Serialize implements the Codec interface.
func (JSON[T]) Serialize(v T) ([]byte, error) {
	return json.Marshal(v)
}

// Deserialize implements the Codec interface.
func (JSON[T]) Deserialize(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return v, nil
}
