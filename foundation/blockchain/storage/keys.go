package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/ardanlabs/blockstore/foundation/blockchain/mmapfile"
)

// Set of bucket names in the index.
var (
	bucketMarkers   = []byte("markers")
	bucketBlocks    = []byte("block_locations")
	bucketTxs       = []byte("tx_locations")
	markerNextBlock = []byte("next_block")
	markerOffset    = []byte("file_offset")
	markerCodec     = []byte("codec")
)

// TxLocation identifies a transaction by the block that holds it and its
// position in the block.
type TxLocation struct {
	BlockNumber uint64 `json:"block_number"`
	Index       uint32 `json:"index"`
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("storage: corrupt index value of %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func encodeLocation(loc mmapfile.LocationInFile) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], uint64(loc.Offset))
	binary.BigEndian.PutUint64(b[8:], uint64(loc.Len))
	return b
}

func decodeLocation(b []byte) (mmapfile.LocationInFile, error) {
	if len(b) != 16 {
		return mmapfile.LocationInFile{}, fmt.Errorf("storage: corrupt block location of %d bytes", len(b))
	}

	loc := mmapfile.LocationInFile{
		Offset: int(binary.BigEndian.Uint64(b[:8])),
		Len:    int(binary.BigEndian.Uint64(b[8:])),
	}

	return loc, nil
}

func encodeTxLocation(loc TxLocation) []byte {
	b := make([]byte, 12)
	binary.BigEndian.PutUint64(b[:8], loc.BlockNumber)
	binary.BigEndian.PutUint32(b[8:], loc.Index)
	return b
}

func decodeTxLocation(b []byte) (TxLocation, error) {
	if len(b) != 12 {
		return TxLocation{}, fmt.Errorf("storage: corrupt tx location of %d bytes", len(b))
	}

	loc := TxLocation{
		BlockNumber: binary.BigEndian.Uint64(b[:8]),
		Index:       binary.BigEndian.Uint32(b[8:]),
	}

	return loc, nil
}
