package gateway

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
)

// Set of error codes returned by the gateway.
const (
	CodeBlockNotFound       = 24
	CodeTxHashNotFound      = 25
	CodeNoBlocks            = 32
	CodeInvalidRequest      = -32600
	CodeMethodNotFound      = -32601
	CodeInvalidParams       = -32602
	CodeInternalServerError = -32603
)

// Set of errors with fixed messages.
var (
	ErrBlockNotFound  = &Error{Code: CodeBlockNotFound, Message: "Block not found"}
	ErrTxHashNotFound = &Error{Code: CodeTxHashNotFound, Message: "Transaction hash not found"}
	ErrNoBlocks       = &Error{Code: CodeNoBlocks, Message: "There are no blocks"}
)

// Error is the error object carried in a JSON-RPC response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// internalError hides the storage failure behind the internal error code
// while keeping its text as data.
func internalError(err error) *Error {
	return &Error{
		Code:    CodeInternalServerError,
		Message: "Internal error",
		Data:    err.Error(),
	}
}

// invalidParams reports params that could not be decoded or validated.
func invalidParams(err error) *Error {
	return &Error{
		Code:    CodeInvalidParams,
		Message: "Invalid params",
		Data:    err.Error(),
	}
}

// toError maps a storage error to an rpc error, using notFound when the
// storage reports the item is missing.
func toError(err error, notFound *Error) *Error {
	if errors.Is(err, database.ErrNotFound) {
		return notFound
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	return internalError(err)
}
