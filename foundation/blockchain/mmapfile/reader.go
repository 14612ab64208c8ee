package mmapfile

import (
	"fmt"

	"github.com/ardanlabs/blockstore/foundation/blockchain/codec"
)

// Reader reads records from a file. A Reader is a small value: copies share
// the same mapping and capacity and can be used concurrently.
type Reader[T any] struct {
	region *region
	codec  codec.Codec[T]
}

// Get reads and decodes the record at loc. The location must have been
// returned by an insert that a Flush has since published.
func (r Reader[T]) Get(loc LocationInFile) (T, error) {
	var v T

	if r.region == nil {
		return v, ErrClosed
	}

	err := r.region.view(loc.Offset, loc.Len, func(data []byte) error {
		var err error
		if v, err = r.codec.Deserialize(data); err != nil {
			return fmt.Errorf("%w: location %s: %w", ErrDeserialize, loc, err)
		}
		return nil
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return v, nil
}

// GetBytes returns a copy of the raw record bytes at loc.
func (r Reader[T]) GetBytes(loc LocationInFile) ([]byte, error) {
	if r.region == nil {
		return nil, ErrClosed
	}

	var out []byte
	err := r.region.view(loc.Offset, loc.Len, func(data []byte) error {
		out = make([]byte, len(data))
		copy(out, data)
		return nil
	})

	return out, err
}

// Capacity returns the current size of the file in bytes.
func (r Reader[T]) Capacity() int {
	if r.region == nil {
		return 0
	}
	return r.region.size()
}
