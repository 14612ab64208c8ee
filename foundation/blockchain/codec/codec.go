// Package codec provides the serialization formats used to store records in
// the blockchain files. Every codec produces a self-contained byte sequence
// so a record can be decoded knowing only its location in a file.
//
// Changing the codec of an existing file is a breaking change: bytes written
// by one codec will not decode with another.
package codec

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned when a byte sequence does not decode.
var ErrMalformed = errors.New("codec: malformed input")

// Codec serializes and deserializes values of type T. Implementations must be
// safe for concurrent use and must not retain the slice passed to Deserialize.
type Codec[T any] interface {
	Serialize(v T) ([]byte, error)
	Deserialize(data []byte) (T, error)
	Name() string
}

// ByName returns a codec for T by its stable name. The names are what the
// node configuration accepts.
func ByName[T any](name string) (Codec[T], error) {
	switch name {
	case "json":
		return JSON[T]{}, nil

	case "json+zstd":
		return NewZstd[T](JSON[T]{})

	case "json+lz4":
		return NewLZ4[T](JSON[T]{}), nil
	}

	return nil, fmt.Errorf("codec: unknown codec %q", name)
}
