// Package gateway provides the JSON-RPC read API over the block storage.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/blockstore/business/sys/metrics"
	"github.com/ardanlabs/blockstore/business/sys/validate"
	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/network"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"go.uber.org/zap"
)

// Version is the only JSON-RPC protocol version accepted.
const Version = "2.0"

// Request is a JSON-RPC request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc" validate:"required,eq=2.0"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method" validate:"required"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response envelope. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// BlockWithTxs is the result of getBlockWithTxs.
type BlockWithTxs struct {
	BlockHash    string               `json:"block_hash"`
	Header       database.BlockHeader `json:"header"`
	Transactions []Transaction        `json:"transactions"`
}

// TransactionWithProof is the result of getTransactionByHash.
type TransactionWithProof struct {
	Transaction Transaction      `json:"transaction"`
	BlockNumber uint64           `json:"block_number"`
	BlockHash   string           `json:"block_hash"`
	Index       uint32           `json:"index"`
	Proof       database.TxProof `json:"proof"`
}

type blockNumberParams struct {
	BlockNumber *uint64 `json:"block_number" validate:"required"`
}

type txHashParams struct {
	TransactionHash string `json:"transaction_hash" validate:"required,startswith=0x"`
}

// NameLookup resolves account ids to readable names.
type NameLookup interface {
	Lookup(accountID database.AccountID) string
}

// method executes one rpc method inside a read transaction.
type method func(txn *storage.Txn, params json.RawMessage) (any, error)

// Core dispatches JSON-RPC requests against the storage.
type Core struct {
	log     *zap.SugaredLogger
	viewer  network.Viewer
	names   NameLookup
	methods map[string]method
}

// NewCore constructs a gateway core reading from the viewer. Names can be
// nil, in which case transactions carry account ids only.
func NewCore(log *zap.SugaredLogger, viewer network.Viewer, names NameLookup) *Core {
	c := Core{
		log:    log,
		viewer: viewer,
		names:  names,
	}

	c.methods = map[string]method{
		"blockNumber":          c.blockNumber,
		"getBlockTxsByNumber":  c.getBlockTxsByNumber,
		"getBlockWithTxs":      c.getBlockWithTxs,
		"getTransactionByHash": c.getTransactionByHash,
	}

	return &c
}

// Handle executes the request and returns its response. Failures are
// reported in the response error, never as a Go error.
func (c *Core) Handle(ctx context.Context, req Request) Response {
	resp := Response{
		JSONRPC: Version,
		ID:      req.ID,
	}

	if err := validate.Check(req); err != nil {
		resp.Error = &Error{Code: CodeInvalidRequest, Message: "Invalid request", Data: err.Error()}
		return resp
	}

	fn, exists := c.methods[req.Method]
	if !exists {
		resp.Error = &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: req.Method}
		return resp
	}

	metrics.AddRPCCall(ctx, req.Method)

	var result any
	err := c.viewer.View(func(txn *storage.Txn) error {
		var err error
		result, err = fn(txn, req.Params)
		return err
	})

	if err != nil {
		resp.Error = toError(err, ErrBlockNotFound)
		if resp.Error.Code == CodeInternalServerError {
			c.log.Errorw("rpc", "method", req.Method, "ERROR", err)
		}
		return resp
	}

	resp.Result = result
	return resp
}

// =============================================================================

func (c *Core) blockNumber(txn *storage.Txn, _ json.RawMessage) (any, error) {
	number, err := txn.LatestBlockNumber()
	if err != nil {
		return nil, toError(err, ErrNoBlocks)
	}

	return number, nil
}

func (c *Core) getBlockTxsByNumber(txn *storage.Txn, params json.RawMessage) (any, error) {
	var p blockNumberParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	trans, err := GetBlockTxsByNumber(txn, *p.BlockNumber)
	if err != nil {
		return nil, err
	}

	return c.withNames(trans), nil
}

func (c *Core) getBlockWithTxs(txn *storage.Txn, params json.RawMessage) (any, error) {
	var p blockNumberParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	header, err := txn.BlockHeader(*p.BlockNumber)
	if err != nil {
		return nil, toError(err, ErrBlockNotFound)
	}

	trans, err := GetBlockTxsByNumber(txn, *p.BlockNumber)
	if err != nil {
		return nil, err
	}

	block := BlockWithTxs{
		BlockHash:    database.Block{Header: header}.Hash(),
		Header:       header,
		Transactions: c.withNames(trans),
	}

	return block, nil
}

func (c *Core) getTransactionByHash(txn *storage.Txn, params json.RawMessage) (any, error) {
	var p txHashParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	tx, block, loc, err := txn.TransactionByHash(p.TransactionHash)
	if err != nil {
		return nil, toError(err, ErrTxHashNotFound)
	}

	proof, err := block.TxProof(int(loc.Index))
	if err != nil {
		return nil, internalError(err)
	}

	twp := TransactionWithProof{
		Transaction: c.withNames([]Transaction{toTransaction(tx)})[0],
		BlockNumber: loc.BlockNumber,
		BlockHash:   block.Hash(),
		Index:       loc.Index,
		Proof:       proof,
	}

	return twp, nil
}

// withNames fills in the account names when a name lookup is configured.
func (c *Core) withNames(trans []Transaction) []Transaction {
	if c.names == nil {
		return trans
	}

	for i := range trans {
		trans[i].FromName = c.names.Lookup(trans[i].FromAccount)
		trans[i].ToName = c.names.Lookup(trans[i].ToAccount)
	}

	return trans
}

// decodeParams decodes and validates the method params.
func decodeParams(params json.RawMessage, val any) error {
	if len(params) == 0 {
		return invalidParams(fmt.Errorf("params are required"))
	}

	decoder := json.NewDecoder(bytes.NewReader(params))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(val); err != nil {
		return invalidParams(err)
	}

	if err := validate.Check(val); err != nil {
		return invalidParams(err)
	}

	return nil
}
