// Package network reads ranges of blocks for peers and requests blocks from
// other nodes.
package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
)

// Direction tells a reader which way to walk the chain.
type Direction int

// Set of directions.
const (
	Forward Direction = iota
	Backward
)

// String implements the fmt.Stringer interface for logging.
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// BlocksRange describes which blocks to read. Reading starts at Start and
// moves Step blocks at a time in Direction until Limit blocks were read. A
// zero Step is treated as 1.
type BlocksRange struct {
	Start     uint64    `json:"start"`
	Limit     uint64    `json:"limit"`
	Step      uint64    `json:"step"`
	Direction Direction `json:"direction"`
}

// BlockError reports a block that could not be read.
type BlockError struct {
	Number uint64
	Err    error
}

// Error implements the error interface.
func (be *BlockError) Error() string {
	return fmt.Sprintf("block %d: %s", be.Number, be.Err)
}

// Unwrap returns the underlying error.
func (be *BlockError) Unwrap() error {
	return be.Err
}

// ReaderCommunication holds the channels a reader reports on. Results and
// Errors are closed once reading stops. Finished then receives nil, or the
// context error when reading was cancelled.
type ReaderCommunication[T any] struct {
	Results  <-chan T
	Errors   <-chan *BlockError
	Finished <-chan error
}

// ReaderExecutor starts reading a range of blocks in the background.
type ReaderExecutor[T any] interface {
	StartReading(ctx context.Context, r BlocksRange) ReaderCommunication[T]
}

// Collect drains the channels and returns the values that were read. A block
// that doesn't exist ends the range and is not an error.
func Collect[T any](comm ReaderCommunication[T]) ([]T, error) {
	var values []T
	for v := range comm.Results {
		values = append(values, v)
	}

	var errs []error
	for be := range comm.Errors {
		if !errors.Is(be, database.ErrNotFound) {
			errs = append(errs, be)
		}
	}

	if err := <-comm.Finished; err != nil {
		errs = append(errs, err)
	}

	return values, errors.Join(errs...)
}
