package network_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockstore/foundation/blockchain/mmapfile"
	"github.com/ardanlabs/blockstore/foundation/blockchain/network"
	"github.com/ardanlabs/blockstore/foundation/blockchain/peer"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func noop(string, ...any) {}

func demoChain(t *testing.T, n int) []database.Block {
	t.Helper()

	pk, err := crypto.HexToECDSA(pkHexKey)
	require.NoError(t, err)

	gen := genesis.Genesis{
		Beneficiary:   "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8",
		TransPerBlock: 2,
		GasPrice:      15,
		Accounts:      []database.AccountID{"0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"},
	}

	blocks, err := gen.Generate(pk, nil, n)
	require.NoError(t, err)

	return blocks
}

func openStorage(t *testing.T, blocks []database.Block) *storage.Storage {
	t.Helper()

	strg, err := storage.Open(storage.Config{
		DBPath: t.TempDir(),
		File: mmapfile.Config{
			MaxSize:       1 << 24,
			GrowthStep:    1 << 20,
			MaxObjectSize: 1 << 16,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { strg.Close() })

	for _, block := range blocks {
		_, err := strg.Append(block)
		require.NoError(t, err)
	}

	return strg
}

func numbers(blocks []database.Block) []uint64 {
	var out []uint64
	for _, b := range blocks {
		out = append(out, b.Header.Number)
	}
	return out
}

func TestDBExecutor_Ranges(t *testing.T) {
	strg := openStorage(t, demoChain(t, 6))
	exec := network.NewBlockExecutor(strg, noop)

	tests := []struct {
		name string
		r    network.BlocksRange
		exp  []uint64
	}{
		{"forward", network.BlocksRange{Start: 0, Limit: 3}, []uint64{0, 1, 2}},
		{"step two", network.BlocksRange{Start: 1, Limit: 3, Step: 2}, []uint64{1, 3, 5}},
		{"backward", network.BlocksRange{Start: 5, Limit: 4, Direction: network.Backward}, []uint64{5, 4, 3, 2}},
		{"backward past genesis", network.BlocksRange{Start: 2, Limit: 10, Step: 1, Direction: network.Backward}, []uint64{2, 1, 0}},
		{"stops at missing block", network.BlocksRange{Start: 4, Limit: 10}, []uint64{4, 5}},
		{"zero limit", network.BlocksRange{Start: 0, Limit: 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := network.Collect(exec.StartReading(context.Background(), tt.r))
			require.NoError(t, err)
			assert.Equal(t, tt.exp, numbers(blocks))
		})
	}
}

func TestDBExecutor_ReportsMissingBlock(t *testing.T) {
	strg := openStorage(t, demoChain(t, 2))
	exec := network.NewHeaderExecutor(strg, noop)

	comm := exec.StartReading(context.Background(), network.BlocksRange{Start: 1, Limit: 5})

	var headers []database.BlockHeader
	for h := range comm.Results {
		headers = append(headers, h)
	}
	require.Len(t, headers, 1)
	assert.Equal(t, uint64(1), headers[0].Number)

	be, ok := <-comm.Errors
	require.True(t, ok)
	assert.Equal(t, uint64(2), be.Number)
	assert.ErrorIs(t, be, database.ErrNotFound)

	assert.NoError(t, <-comm.Finished)
}

func TestDBExecutor_Cancel(t *testing.T) {
	strg := openStorage(t, demoChain(t, 2))
	exec := network.NewBlockExecutor(strg, noop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := network.Collect(exec.StartReading(ctx, network.BlocksRange{Start: 0, Limit: 2}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient(t *testing.T) {
	chain := demoChain(t, 3)
	strg := openStorage(t, chain)
	exec := network.NewBlockExecutor(strg, noop)

	var proposed database.Block

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/node/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(peer.Status{
			NextBlock:       3,
			LatestBlockHash: chain[2].Hash(),
			KnownPeers:      []peer.Peer{peer.New("other:9080")},
		})
	})
	mux.HandleFunc("GET /v1/node/block/list/{from}/{to}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("from") != "1" || r.PathValue("to") != "5" {
			http.Error(w, "unexpected range", http.StatusBadRequest)
			return
		}
		blocks, _ := network.Collect(exec.StartReading(r.Context(), network.BlocksRange{Start: 1, Limit: 5}))
		json.NewEncoder(w).Encode(blocks)
	})
	mux.HandleFunc("POST /v1/node/block/propose", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&proposed); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	pr := peer.New(strings.TrimPrefix(srv.URL, "http://"))
	client := network.NewClient(5*time.Second, noop)
	ctx := context.Background()

	status, err := client.RequestPeerStatus(ctx, pr)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), status.NextBlock)
	assert.Equal(t, chain[2].Hash(), status.LatestBlockHash)
	assert.Equal(t, []peer.Peer{peer.New("other:9080")}, status.KnownPeers)

	blocks, err := client.RequestPeerBlocks(ctx, pr, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, numbers(blocks))
	assert.Equal(t, chain[2].Hash(), blocks[1].Hash())

	require.NoError(t, client.SendBlockToPeer(ctx, pr, chain[1]))
	assert.Equal(t, chain[1].Hash(), proposed.Hash())

	_, err = client.RequestPeerBlocks(ctx, pr, 2, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestBlockError(t *testing.T) {
	be := &network.BlockError{Number: 7, Err: database.ErrNotFound}

	assert.Equal(t, "block 7: not found", be.Error())
	assert.True(t, errors.Is(be, database.ErrNotFound))
}
