// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/blockstore/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/blockstore/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/blockstore/business/core/gateway"
	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/network"
	"github.com/ardanlabs/blockstore/foundation/blockchain/peer"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
	"github.com/ardanlabs/blockstore/foundation/blockchain/worker"
	"github.com/ardanlabs/blockstore/foundation/events"
	"github.com/ardanlabs/blockstore/foundation/nameservice"
	"github.com/ardanlabs/blockstore/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *zap.SugaredLogger
	Host      string
	Storage   *storage.Storage
	Peers     *peer.Set
	Worker    *worker.Worker
	Evts      *events.Events
	NS        *nameservice.NameService
	EvHandler database.EvHandler
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	var names gateway.NameLookup
	if cfg.NS != nil {
		names = cfg.NS
	}

	pbl := public.Handlers{
		Log:     cfg.Log,
		Gateway: gateway.NewCore(cfg.Log, cfg.Storage, names),
		Storage: cfg.Storage,
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodPost, version, "/rpc", pbl.RPC)
	app.Handle(http.MethodGet, version, "/storage/stats", pbl.StorageStats)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:     cfg.Log,
		Host:    cfg.Host,
		Storage: cfg.Storage,
		Peers:   cfg.Peers,
		Worker:  cfg.Worker,
		Blocks:  network.NewBlockExecutor(cfg.Storage, cfg.EvHandler),
		Headers: network.NewHeaderExecutor(cfg.Storage, cfg.EvHandler),
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/block/list/:from/:to", prv.BlocksByNumber)
	app.Handle(http.MethodGet, version, "/node/header/list/:start/:limit", prv.HeadersByRange)
	app.Handle(http.MethodPost, version, "/node/block/propose", prv.ProposeBlock)
}
