package mmapfile

import (
	"github.com/ardanlabs/blockstore/foundation/blockchain/codec"
)

// Open validates the config, opens or creates the file at path and returns
// the single writer for the file along with a reader. More readers can be
// had by copying the returned reader or calling Writer.Reader.
func Open[T any](cfg Config, path string, c codec.Codec[T]) (*Writer[T], Reader[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, Reader[T]{}, err
	}

	r, err := openRegion(path, cfg)
	if err != nil {
		return nil, Reader[T]{}, err
	}

	w := Writer[T]{
		region:        r,
		codec:         c,
		maxObjectSize: cfg.MaxObjectSize,
	}

	return &w, w.Reader(), nil
}
