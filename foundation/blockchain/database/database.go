// Package database defines the blocks and transactions kept by the block
// store along with the rules a block must pass before it is appended.
package database

import "errors"

// Set of errors shared by the packages that read and write blocks.
var (
	ErrNotFound    = errors.New("not found")
	ErrChainForked = errors.New("blockchain forked, start resync")
)

// EvHandler defines a function that is called when events occur while
// processing blocks.
type EvHandler func(v string, args ...any)
