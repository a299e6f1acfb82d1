// Package routing implements the per-node routing state described in
// spec.md §3/§4.3: a bounded heartbeat history per origin, next-hop
// selection with deterministic tie-breaking, and the OBU upstream cache
// with hysteresis and rotation-only failover.
package routing

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"vanet-relay/metrics"
	"vanet-relay/wire"
)

// ReplyAction is the outcome of feeding a HeartbeatReply into the table,
// per the loop/bounce-prevention rules in spec.md §4.3.
type ReplyAction int

const (
	// ReplyDrop means no matching (origin, seq) heartbeat exists; the
	// reply is stale or unknown and must be silently discarded.
	ReplyDrop ReplyAction = iota
	// ReplySkipForward means the reply was recorded but must not be
	// re-forwarded: it arrived back from the same neighbor we would
	// forward it to.
	ReplySkipForward
	// ReplyLoopDetected means forwarding toward next_upstream would send
	// the reply straight back to the node that answered it.
	ReplyLoopDetected
	// ReplyForward means the reply was recorded and should be forwarded
	// toward NextHop.
	ReplyForward
)

// Table holds all routing state for one node behind a single
// sync.RWMutex. Critical sections are kept short and contain no I/O, per
// the teacher's hub locking discipline.
type Table struct {
	mu sync.RWMutex

	ownMAC           wire.MacAddress
	helloHistory     int
	cachedCandidates int

	routes map[wire.MacAddress]*history

	// OBU-only upstream cache. Unused by RSUs.
	cachedUpstream *Route
	candidateList  []Route

	logger *zap.Logger
}

// New creates a Table for a node identified by own, bounding per-origin
// history to helloHistory entries and the OBU candidate cache to
// cachedCandidates entries.
func New(own wire.MacAddress, helloHistory, cachedCandidates int, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{
		ownMAC:           own,
		helloHistory:     helloHistory,
		cachedCandidates: cachedCandidates,
		routes:           make(map[wire.MacAddress]*history),
		logger:           logger,
	}
}

// InsertHeartbeat records a heartbeat observed from origin at sequence
// seq, arriving hops away via the immediate neighbor via, at local time
// now. isNew reports whether (origin, seq) had never been recorded
// before (callers use this to suppress re-flooding duplicates).
// routeChanged reports whether this insertion changed the best next-hop
// toward origin; on true the table itself logs the route-discovery event
// and bumps metrics.RouteDiscovered.
func (t *Table) InsertHeartbeat(origin wire.MacAddress, seq uint32, hops uint32, via wire.MacAddress, now time.Duration) (isNew, routeChanged bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before, beforeOK := t.routeForLocked(origin)

	h, ok := t.routes[origin]
	if !ok {
		h = newHistory()
		t.routes[origin] = h
	}

	if h.len() > 0 && seq < h.minSeq() {
		// Sequence wraparound: this origin's counter restarted, so every
		// stored sample is now older than "new" and must be dropped
		// rather than merged with stale state.
		h.clear()
	}

	if rec, exists := h.get(seq); exists {
		if now < rec.SeenAt {
			rec.SeenAt = now
		}
		return false, false
	}

	rec := &HeartbeatRecord{
		SeenAt:                 now,
		NextUpstream:           via,
		Hops:                   hops,
		DownstreamObservations: make(map[wire.MacAddress][]Target),
	}
	h.insert(seq, rec, t.helloHistory)

	after, afterOK := t.routeForLocked(origin)
	routeChanged = afterOK && (!beforeOK || before.NextHop != after.NextHop)
	if routeChanged {
		metrics.RouteDiscovered.WithLabelValues(origin.String()).Inc()
		t.logger.Info("route discovered",
			zap.Stringer("origin", origin),
			zap.Stringer("next_hop", after.NextHop),
			zap.Uint32("hops", after.Hops),
		)
	}
	return true, routeChanged
}

// InsertHeartbeatReply records a HeartbeatReply for (origin, seq) whose
// payload sender is sender, received directly from neighbor via, at
// local time now. It returns the forwarding action to take and, when
// meaningful, the next-hop to forward toward.
func (t *Table) InsertHeartbeatReply(origin wire.MacAddress, seq uint32, sender, via wire.MacAddress, now time.Duration) (ReplyAction, wire.MacAddress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.routes[origin]
	if !ok {
		return ReplyDrop, wire.MacAddress{}
	}
	rec, ok := h.get(seq)
	if !ok {
		return ReplyDrop, wire.MacAddress{}
	}

	latency := now - rec.SeenAt
	if latency < 0 {
		latency = 0
	}
	rec.Latencies = append(rec.Latencies, LatencySample{Delay: latency, Carrier: via})
	rec.DownstreamObservations[sender] = append(rec.DownstreamObservations[sender], Target{Via: via})

	next := rec.NextUpstream
	switch {
	case via == next:
		return ReplySkipForward, next
	case next == sender:
		metrics.LoopDetected.Inc()
		t.logger.Warn("loop detected on heartbeat reply",
			zap.Stringer("origin", origin),
			zap.Uint32("seq", seq),
			zap.Stringer("sender", sender),
		)
		return ReplyLoopDetected, next
	default:
		return ReplyForward, next
	}
}

// KnownTargets returns the distinct node MACs seen in downstream
// observations recorded under origin's history bucket. RSUs use this to
// enumerate known OBUs for broadcast fan-out (spec.md §4.4).
func (t *Table) KnownTargets(origin wire.MacAddress) []wire.MacAddress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h, ok := t.routes[origin]
	if !ok {
		return nil
	}
	seen := make(map[wire.MacAddress]bool)
	var out []wire.MacAddress
	for _, rec := range h.records() {
		for target := range rec.DownstreamObservations {
			if !seen[target] {
				seen[target] = true
				out = append(out, target)
			}
		}
	}
	return out
}
