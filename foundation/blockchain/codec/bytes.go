package codec

import (
	"encoding/binary"
	"fmt"
)

// Bytes stores a raw byte slice behind its uvarint encoded length. A two
// byte value is stored in three bytes.
type Bytes struct{}

// Name implements the Codec interface.
func (Bytes) Name() string {
	return "bytes"
}

// Serialize implements the Codec interface.
func (Bytes) Serialize(v []byte) ([]byte, error) {
	out := make([]byte, 0, binary.MaxVarintLen64+len(v))
	out = binary.AppendUvarint(out, uint64(len(v)))
	return append(out, v...), nil
}

// Deserialize implements the Codec interface. The frame must hold exactly the
// number of bytes named by its prefix.
func (Bytes) Deserialize(data []byte) ([]byte, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return nil, fmt.Errorf("%w: bad length prefix", ErrMalformed)
	}

	if uint64(len(data)-k) != n {
		return nil, fmt.Errorf("%w: frame holds %d bytes, prefix says %d", ErrMalformed, len(data)-k, n)
	}

	out := make([]byte, n)
	copy(out, data[k:])

	return out, nil
}
