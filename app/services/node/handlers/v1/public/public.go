// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ardanlabs/blockstore/business/core/gateway"
	"github.com/ardanlabs/blockstore/business/web/errs"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"github.com/ardanlabs/blockstore/foundation/events"
	"github.com/ardanlabs/blockstore/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Gateway *gateway.Core
	Storage *storage.Storage
	WS      websocket.Upgrader
	Evts    *events.Events
}

// RPC executes a JSON-RPC request against the block storage. Rpc level
// failures are reported inside the response body with a 200 status.
func (h Handlers) RPC(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req gateway.Request
	if err := web.Decode(r, &req); err != nil {
		resp := gateway.Response{
			JSONRPC: gateway.Version,
			Error: &gateway.Error{
				Code:    gateway.CodeInvalidRequest,
				Message: "Invalid request",
				Data:    err.Error(),
			},
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}

	resp := h.Gateway.Handle(ctx, req)

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StorageStats returns the state of the blocks file and its index.
func (h Handlers) StorageStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.Storage.Stats()
	if err != nil {
		return errs.NewTrusted(errors.New("storage unavailable"), http.StatusServiceUnavailable)
	}

	return web.Respond(ctx, w, stats, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(evt); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
