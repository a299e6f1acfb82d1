// Package node implements the per-node state machine: the device-receive
// loop that drives routing-table updates and control/data forwarding,
// the tap-receive loop that picks up local client traffic, and (for
// RSUs) periodic heartbeat emission and broadcast fan-out.
//
// The lifecycle mirrors the teacher's Server.Serve/Shutdown shape: Run
// spawns one goroutine per input source, tracked by a sync.WaitGroup,
// and each loop checks ctx.Err() to distinguish an intentional context
// cancellation from a genuine I/O error.
package node

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vanet-relay/config"
	"vanet-relay/crypto"
	"vanet-relay/device"
	"vanet-relay/pipeline"
	"vanet-relay/routing"
	"vanet-relay/wire"
)

// Kind selects which state machine variant a Node runs.
type Kind int

const (
	KindOBU Kind = iota
	KindRSU
)

func (k Kind) String() string {
	if k == KindRSU {
		return "rsu"
	}
	return "obu"
}

// Node is a single OBU or RSU participant. Its fields are only mutated
// from the goroutines Run spawns, except for the routing.Table and
// seq counter, which are already internally synchronized.
type Node struct {
	kind Kind
	own  wire.MacAddress
	cfg  config.NodeConfig

	table *routing.Table
	dev   device.Device
	tap   device.Tap

	key     *[crypto.KeySize]byte
	logger  *zap.Logger
	start   time.Time
	seq     atomic.Uint32
	handler pipeline.FrameHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Node. dev must never be nil; tap may be nil for a node
// that only relays control/data traffic without a local client
// interface. key enables AEAD encryption of Data payloads when
// cfg.EnableEncryption is set; it may be nil only when encryption is
// disabled.
func New(kind Kind, own wire.MacAddress, cfg config.NodeConfig, dev device.Device, tap device.Tap, key *[crypto.KeySize]byte, logger *zap.Logger) *Node {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.EnableEncryption {
		key = nil
	}
	n := &Node{
		kind:   kind,
		own:    own,
		cfg:    cfg,
		table:  routing.New(own, cfg.HelloHistory, cfg.CachedCandidates, logger),
		dev:    dev,
		tap:    tap,
		key:    key,
		logger: logger,
		start:  time.Now(),
	}

	rl := pipeline.NewRateLimitMiddleware(rate.Limit(200), 400, logger)
	n.handler = pipeline.Chain(
		pipeline.LoggingMiddleware(logger),
		rl.Middleware(),
	)(n.dispatch)
	return n
}

// now returns this node's boot-relative clock, the unit every recorded
// SeenAt and Duration field is expressed in.
func (n *Node) now() time.Duration { return time.Since(n.start) }

func (n *Node) nextSeq() uint32 { return n.seq.Add(1) }

// Run starts the node's goroutines and blocks until ctx is canceled,
// then waits for every goroutine to exit before returning ctx.Err().
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	defer cancel()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deviceRxLoop(ctx)
	}()

	if n.tap != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.tapRxLoop(ctx)
		}()
	}

	if n.kind == KindRSU && n.cfg.HelloPeriodicity > 0 {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.heartbeatLoop(ctx)
		}()
	}

	<-ctx.Done()
	n.wg.Wait()
	return ctx.Err()
}

// Shutdown cancels the node's context (if Run is in flight) and waits
// for all of its goroutines to exit.
func (n *Node) Shutdown() {
	if n.cancel != nil {
		n.cancel()
	}
	n.wg.Wait()
}

// Table exposes the node's routing state, primarily for tests and
// observability; production code should prefer the Node's own
// forwarding methods.
func (n *Node) Table() *routing.Table { return n.table }
