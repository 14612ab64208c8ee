package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// MaxDecodedSize bounds how large a decompressed record may be. A length
// prefix or frame header asking for more is treated as corruption.
const MaxDecodedSize = 64 << 20

// lz4MaxRatio is the largest expansion lz4 block compression can produce.
const lz4MaxRatio = 255

// Zstd compresses the output of another codec with zstd.
type Zstd[T any] struct {
	inner Codec[T]
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewZstd constructs a zstd codec around the inner codec.
func NewZstd[T any](inner Codec[T]) (*Zstd[T], error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("codec: zstd encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0), zstd.WithDecoderMaxMemory(MaxDecodedSize))
	if err != nil {
		return nil, fmt.Errorf("codec: zstd decoder: %w", err)
	}

	z := Zstd[T]{
		inner: inner,
		enc:   enc,
		dec:   dec,
	}

	return &z, nil
}

// Name implements the Codec interface.
func (z *Zstd[T]) Name() string {
	return z.inner.Name() + "+zstd"
}

// Serialize implements the Codec interface.
func (z *Zstd[T]) Serialize(v T) ([]byte, error) {
	raw, err := z.inner.Serialize(v)
	if err != nil {
		return nil, err
	}

	return z.enc.EncodeAll(raw, nil), nil
}

// Deserialize implements the Codec interface.
func (z *Zstd[T]) Deserialize(data []byte) (T, error) {
	raw, err := z.dec.DecodeAll(data, nil)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: zstd: %w", ErrMalformed, err)
	}

	return z.inner.Deserialize(raw)
}

// =============================================================================

// lz4 frame modes.
const (
	lz4Stored     byte = 0
	lz4Compressed byte = 1
)

// LZ4 compresses the output of another codec with lz4 block compression.
// The frame is [mode][uvarint raw length][payload]; incompressible input is
// stored as is.
type LZ4[T any] struct {
	inner Codec[T]
}

// NewLZ4 constructs an lz4 codec around the inner codec.
func NewLZ4[T any](inner Codec[T]) *LZ4[T] {
	return &LZ4[T]{inner: inner}
}

// Name implements the Codec interface.
func (l *LZ4[T]) Name() string {
	return l.inner.Name() + "+lz4"
}

// Serialize implements the Codec interface.
func (l *LZ4[T]) Serialize(v T) ([]byte, error) {
	raw, err := l.inner.Serialize(v)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 1, 1+binary.MaxVarintLen64)
	header = binary.AppendUvarint(header, uint64(len(raw)))

	buf := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, buf, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: lz4: %w", err)
	}

	if n == 0 || n >= len(raw) {
		header[0] = lz4Stored
		return append(header, raw...), nil
	}

	header[0] = lz4Compressed
	return append(header, buf[:n]...), nil
}

// Deserialize implements the Codec interface.
func (l *LZ4[T]) Deserialize(data []byte) (T, error) {
	var zero T

	if len(data) < 2 {
		return zero, fmt.Errorf("%w: lz4: short frame", ErrMalformed)
	}

	size, k := binary.Uvarint(data[1:])
	if k <= 0 {
		return zero, fmt.Errorf("%w: lz4: bad length prefix", ErrMalformed)
	}
	payload := data[1+k:]

	switch data[0] {
	case lz4Stored:
		if uint64(len(payload)) != size {
			return zero, fmt.Errorf("%w: lz4: stored frame holds %d bytes, prefix says %d", ErrMalformed, len(payload), size)
		}
		return l.inner.Deserialize(payload)

	case lz4Compressed:
		if size > MaxDecodedSize || size > uint64(len(payload))*lz4MaxRatio {
			return zero, fmt.Errorf("%w: lz4: prefix says %d bytes from a %d byte payload", ErrMalformed, size, len(payload))
		}
		raw := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return zero, fmt.Errorf("%w: lz4: %w", ErrMalformed, err)
		}
		if uint64(n) != size {
			return zero, fmt.Errorf("%w: lz4: got %d bytes, prefix says %d", ErrMalformed, n, size)
		}
		return l.inner.Deserialize(raw)
	}

	return zero, fmt.Errorf("%w: lz4: unknown mode %d", ErrMalformed, data[0])
}
