package worker

import (
	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
)

// maxBlockShareRequests represents the max number of pending block share
// requests that can be outstanding before share requests are dropped.
const maxBlockShareRequests = 100

// SignalShareBlock queues a newly appended block to be proposed to the
// known peers. If the queue is full the block is not shared.
func (w *Worker) SignalShareBlock(block database.Block) {
	select {
	case w.blockSharing <- block:
		w.evHandler("worker: SignalShareBlock: share blk[%d] signaled", block.Header.Number)
	default:
		w.evHandler("worker: SignalShareBlock: queue full, blk[%d] won't be shared", block.Header.Number)
	}
}

// shareBlockOperations handles sharing new blocks.
func (w *Worker) shareBlockOperations() {
	w.evHandler("worker: shareBlockOperations: G started")
	defer w.evHandler("worker: shareBlockOperations: G completed")

	for {
		select {
		case block := <-w.blockSharing:
			if !w.isShutdown() {
				w.runShareBlockOperation(block)
			}
		case <-w.ctx.Done():
			w.evHandler("worker: shareBlockOperations: received shut signal")
			return
		}
	}
}

// runShareBlockOperation proposes the block to every known peer.
func (w *Worker) runShareBlockOperation(block database.Block) {
	w.evHandler("worker: runShareBlockOperation: started")
	defer w.evHandler("worker: runShareBlockOperation: completed")

	for _, pr := range w.peers.Copy(w.host) {
		if err := w.client.SendBlockToPeer(w.ctx, pr, block); err != nil {
			w.evHandler("worker: runShareBlockOperation: WARNING: %s", err)
		}
	}
}
