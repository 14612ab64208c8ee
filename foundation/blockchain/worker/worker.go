// Package worker keeps the node's chain in step with its peers and shares
// new blocks with them.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/network"
	"github.com/ardanlabs/blockstore/foundation/blockchain/peer"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
)

// Config represents the dependencies and settings of the worker.
type Config struct {
	Host      string
	Storage   *storage.Storage
	Client    *network.Client
	Peers     *peer.Set
	Interval  time.Duration
	BatchSize uint64
	EvHandler database.EvHandler
}

// Worker manages the background workflows of the node.
type Worker struct {
	host         string
	storage      *storage.Storage
	client       *network.Client
	peers        *peer.Set
	batchSize    uint64
	evHandler    database.EvHandler
	wg           sync.WaitGroup
	ticker       *time.Ticker
	ctx          context.Context
	cancel       context.CancelFunc
	startSync    chan struct{}
	blockSharing chan database.Block
}

// Run creates a worker, syncs the node once and starts all the background
// processes.
func Run(cfg Config) *Worker {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		host:         cfg.Host,
		storage:      cfg.Storage,
		client:       cfg.Client,
		peers:        cfg.Peers,
		batchSize:    cfg.BatchSize,
		evHandler:    cfg.EvHandler,
		ticker:       time.NewTicker(cfg.Interval),
		ctx:          ctx,
		cancel:       cancel,
		startSync:    make(chan struct{}, 1),
		blockSharing: make(chan database.Block, maxBlockShareRequests),
	}

	// Update this node before starting any support G's.
	w.Sync(ctx)

	operations := []func(){
		w.syncOperations,
		w.shareBlockOperations,
	}

	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	w.cancel()
	w.wg.Wait()
}

// SignalSync starts a sync with the peers outside of the regular interval.
// If a sync is already pending, it just returns.
func (w *Worker) SignalSync() {
	select {
	case w.startSync <- struct{}{}:
		w.evHandler("worker: SignalSync: sync signaled")
	default:
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	return w.ctx.Err() != nil
}
