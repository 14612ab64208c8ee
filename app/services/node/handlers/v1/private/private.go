// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/blockstore/business/web/errs"
	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/network"
	"github.com/ardanlabs/blockstore/foundation/blockchain/peer"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"github.com/ardanlabs/blockstore/foundation/blockchain/worker"
	"github.com/ardanlabs/blockstore/foundation/web"
	"go.uber.org/zap"
)

// maxBlocksPerRequest caps how many blocks a single list call returns.
const maxBlocksPerRequest = 1000

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Host    string
	Storage *storage.Storage
	Peers   *peer.Set
	Worker  *worker.Worker
	Blocks  network.ReaderExecutor[database.Block]
	Headers network.ReaderExecutor[database.BlockHeader]
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var status peer.Status

	err := h.Storage.View(func(txn *storage.Txn) error {
		next, err := txn.NextBlockNumber()
		if err != nil {
			return err
		}
		status.NextBlock = next

		if next == 0 {
			return nil
		}

		header, err := txn.BlockHeader(next - 1)
		if err != nil {
			return err
		}
		status.LatestBlockHash = database.Block{Header: header}.Hash()

		return nil
	})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	status.KnownPeers = h.Peers.Copy(h.Host)

	return web.Respond(ctx, w, status, http.StatusOK)
}

// BlocksByNumber returns the blocks between the specified from/to values
// inclusive. The list stops early at the first block this node doesn't have.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := h.blockNumber(web.Param(r, "from"))
	if err != nil {
		return errs.BadRequest(err)
	}

	to, err := h.blockNumber(web.Param(r, "to"))
	if err != nil {
		return errs.BadRequest(err)
	}

	if from > to {
		return errs.BadRequest(errors.New("from greater than to"))
	}

	limit := min(to-from, maxBlocksPerRequest-1) + 1

	comm := h.Blocks.StartReading(ctx, network.BlocksRange{
		Start:     from,
		Limit:     limit,
		Direction: network.Forward,
	})

	blocks, err := network.Collect(comm)
	if err != nil {
		return fmt.Errorf("blocks by number: %w", err)
	}

	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// HeadersByRange returns block headers walking the chain from start. The
// step and direction query parameters control the walk.
func (h Handlers) HeadersByRange(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	start, err := h.blockNumber(web.Param(r, "start"))
	if err != nil {
		return errs.BadRequest(err)
	}

	limit, err := strconv.ParseUint(web.Param(r, "limit"), 10, 64)
	if err != nil {
		return errs.BadRequest(err)
	}

	var step uint64
	if s := r.URL.Query().Get("step"); s != "" {
		if step, err = strconv.ParseUint(s, 10, 64); err != nil {
			return errs.BadRequest(err)
		}
	}

	direction := network.Forward
	switch r.URL.Query().Get("direction") {
	case "", "forward":
	case "backward":
		direction = network.Backward
	default:
		return errs.BadRequest(errors.New("direction must be forward or backward"))
	}

	comm := h.Headers.StartReading(ctx, network.BlocksRange{
		Start:     start,
		Limit:     min(limit, maxBlocksPerRequest),
		Step:      step,
		Direction: direction,
	})

	headers, err := network.Collect(comm)
	if err != nil {
		return fmt.Errorf("headers by range: %w", err)
	}

	return web.Respond(ctx, w, headers, http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and if that
// passes, appends the block to the local storage.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.BadRequest(err)
	}

	h.Log.Infow("propose block", "traceid", v.TraceID, "number", block.Header.Number, "trans", len(block.Trans))

	if _, err := h.Storage.Append(block); err != nil {
		if errors.Is(err, database.ErrChainForked) {
			h.Worker.SignalSync()
		}

		return errs.NotAcceptable(fmt.Errorf("block not accepted: %w", err))
	}

	h.Worker.SignalShareBlock(block)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// blockNumber parses a block number, resolving "latest" against storage.
func (h Handlers) blockNumber(s string) (uint64, error) {
	if s != "latest" && s != "" {
		return strconv.ParseUint(s, 10, 64)
	}

	var number uint64
	err := h.Storage.View(func(txn *storage.Txn) error {
		var err error
		number, err = txn.LatestBlockNumber()
		return err
	})

	return number, err
}
