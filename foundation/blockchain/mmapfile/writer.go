package mmapfile

import (
	"fmt"

	"github.com/ardanlabs/blockstore/foundation/blockchain/codec"
)

// Writer is the only value allowed to modify a file. It is not safe for
// concurrent use.
type Writer[T any] struct {
	region        *region
	codec         codec.Codec[T]
	maxObjectSize int
}

// Insert serializes v and writes it at offset, returning the number of bytes
// written. The caller owns the write position and must advance it by the
// returned length. The file is grown so that a worst-case record still fits
// after this one.
func (w *Writer[T]) Insert(offset int, v T) (int, error) {
	if w.region.closed.Load() {
		return 0, ErrClosed
	}

	data, err := w.codec.Serialize(v)
	if err != nil {
		return 0, fmt.Errorf("mmapfile: serialize: %w", err)
	}

	n := len(data)
	if n > w.maxObjectSize {
		return 0, fmt.Errorf("%w: %d bytes, max %d", ErrObjectTooLarge, n, w.maxObjectSize)
	}

	if offset < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrOutOfBounds, offset)
	}

	if offset > w.region.maxSize {
		return 0, fmt.Errorf("%w: offset %d, max size %d", ErrCapacityExceeded, offset, w.region.maxSize)
	}

	if err := w.region.ensureCapacity(offset + n + w.maxObjectSize); err != nil {
		return 0, err
	}

	w.region.write(offset, data)

	return n, nil
}

// Flush makes every preceding insert visible to reads that start after it
// returns, and syncs the written range to disk. Capacity is not changed.
func (w *Writer[T]) Flush() error {
	if w.region.closed.Load() {
		return ErrClosed
	}

	return w.region.sync()
}

// Get reads the record at loc. The writer reads its own file like any reader.
func (w *Writer[T]) Get(loc LocationInFile) (T, error) {
	return w.Reader().Get(loc)
}

// Reader returns a new reader for the file.
func (w *Writer[T]) Reader() Reader[T] {
	return Reader[T]{
		region: w.region,
		codec:  w.codec,
	}
}

// Capacity returns the current size of the file in bytes.
func (w *Writer[T]) Capacity() int {
	return w.region.size()
}

// Close releases the mapping and the file once in flight reads finish.
// Readers fail with ErrClosed afterwards. Close must not run concurrently
// with Insert or Flush.
func (w *Writer[T]) Close() error {
	return w.region.close()
}
