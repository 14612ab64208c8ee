package network

import (
	"context"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
)

// resultsBuffer bounds how far a reader runs ahead of its consumer.
const resultsBuffer = 32

// Viewer provides read only transactions over stored blocks.
type Viewer interface {
	View(fn func(txn *storage.Txn) error) error
}

// DBExecutor reads blocks, or parts of them, from storage.
type DBExecutor[T any] struct {
	viewer    Viewer
	read      func(txn *storage.Txn, number uint64) (T, error)
	evHandler database.EvHandler
}

// NewBlockExecutor constructs an executor reading full blocks.
func NewBlockExecutor(viewer Viewer, evHandler database.EvHandler) *DBExecutor[database.Block] {
	return &DBExecutor[database.Block]{
		viewer:    viewer,
		read:      (*storage.Txn).Block,
		evHandler: evHandler,
	}
}

// NewHeaderExecutor constructs an executor reading block headers.
func NewHeaderExecutor(viewer Viewer, evHandler database.EvHandler) *DBExecutor[database.BlockHeader] {
	return &DBExecutor[database.BlockHeader]{
		viewer:    viewer,
		read:      (*storage.Txn).BlockHeader,
		evHandler: evHandler,
	}
}

// StartReading reads the range in a new goroutine. Reading stops after
// Limit values, at the first block that can't be read, or when the context
// is cancelled. Each block is read in its own transaction.
func (e *DBExecutor[T]) StartReading(ctx context.Context, r BlocksRange) ReaderCommunication[T] {
	results := make(chan T, resultsBuffer)
	errs := make(chan *BlockError, 1)
	finished := make(chan error, 1)

	step := r.Step
	if step == 0 {
		step = 1
	}

	go func() {
		e.evHandler("network: StartReading: started: start[%d]: limit[%d]: step[%d]: %s", r.Start, r.Limit, step, r.Direction)

		var err error
		defer func() {
			close(results)
			close(errs)
			finished <- err
			close(finished)
			e.evHandler("network: StartReading: completed: err[%v]", err)
		}()

		number := r.Start
		for read := uint64(0); read < r.Limit; read++ {
			if err = ctx.Err(); err != nil {
				return
			}

			var v T
			verr := e.viewer.View(func(txn *storage.Txn) error {
				var err error
				v, err = e.read(txn, number)
				return err
			})
			if verr != nil {
				errs <- &BlockError{Number: number, Err: verr}
				return
			}

			select {
			case results <- v:
			case <-ctx.Done():
				err = ctx.Err()
				return
			}

			if r.Direction == Backward {
				if number < step {
					return
				}
				number -= step
				continue
			}
			number += step
		}
	}()

	return ReaderCommunication[T]{
		Results:  results,
		Errors:   errs,
		Finished: finished,
	}
}
