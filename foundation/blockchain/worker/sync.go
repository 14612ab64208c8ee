package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/peer"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"golang.org/x/sync/errgroup"
)

// maxStatusRequests bounds how many peers are asked for their status at once.
const maxStatusRequests = 8

// syncOperations runs a sync on every tick or signal.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
		case <-w.startSync:
		case <-w.ctx.Done():
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}

		if !w.isShutdown() {
			w.Sync(w.ctx)
		}
	}
}

// Sync asks every known peer for its status, learns about new peers and
// pulls the blocks this node is missing from the peer with the longest
// chain.
func (w *Worker) Sync(ctx context.Context) {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	statuses := w.peerStatuses(ctx)

	var best peer.Peer
	var bestStatus peer.Status
	for pr, st := range statuses {
		w.addNewPeers(st.KnownPeers)
		if st.NextBlock > bestStatus.NextBlock {
			best, bestStatus = pr, st
		}
	}

	if best.Host == "" {
		return
	}

	if err := w.pullBlocks(ctx, best, bestStatus); err != nil {
		w.evHandler("worker: sync: pullBlocks: %s: ERROR: %s", best, err)
	}
}

// peerStatuses queries the known peers at the same time. Peers that can't be
// reached are removed from the set.
func (w *Worker) peerStatuses(ctx context.Context) map[peer.Peer]peer.Status {
	var mu sync.Mutex
	statuses := make(map[peer.Peer]peer.Status)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxStatusRequests)

	for _, pr := range w.peers.Copy(w.host) {
		g.Go(func() error {
			st, err := w.client.RequestPeerStatus(ctx, pr)
			if err != nil {
				w.evHandler("worker: sync: requestPeerStatus: %s: ERROR: %s", pr, err)
				w.peers.Remove(pr)
				return nil
			}

			mu.Lock()
			statuses[pr] = st
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return statuses
}

// addNewPeers makes sure the specified peers are included in the node's
// list of known peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	for _, pr := range knownPeers {
		if pr.Match(w.host) {
			continue
		}

		if w.peers.Add(pr) {
			w.evHandler("worker: sync: addNewPeers: adding peer-node %s", pr)
		}
	}
}

// pullBlocks requests the missing blocks from the peer in batches and appends
// them, one batch per storage update.
func (w *Worker) pullBlocks(ctx context.Context, pr peer.Peer, st peer.Status) error {
	for {
		var next uint64
		err := w.storage.View(func(txn *storage.Txn) error {
			var err error
			next, err = txn.NextBlockNumber()
			return err
		})
		if err != nil {
			return err
		}

		if !st.HasBlocksAfter(next) {
			return nil
		}

		to := min(next+w.batchSize-1, st.NextBlock-1)

		w.evHandler("worker: sync: pullBlocks: %s: from[%d]: to[%d]", pr, next, to)

		blocks, err := w.client.RequestPeerBlocks(ctx, pr, next, to)
		if err != nil {
			return err
		}

		if len(blocks) == 0 {
			return fmt.Errorf("peer returned no blocks from %d", next)
		}

		err = w.storage.Update(func(txn *storage.Txn) error {
			for _, block := range blocks {
				if _, err := txn.Append(block); err != nil {
					return fmt.Errorf("blk[%d]: %w", block.Header.Number, err)
				}
			}
			return nil
		})

		switch {
		case errors.Is(err, database.ErrChainForked):
			w.evHandler("worker: sync: pullBlocks: %s: chain forked, resync required", pr)
			return err
		case err != nil:
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
