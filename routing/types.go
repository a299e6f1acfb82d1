package routing

import (
	"container/list"
	"time"

	"vanet-relay/wire"
)

// LatencySample is one observed round-trip delay for a (origin, seq)
// heartbeat, paired with the neighbor that carried the reply.
type LatencySample struct {
	Delay   time.Duration
	Carrier wire.MacAddress
}

// Target is one observation of a node answering via a given transit
// neighbor, recorded while forwarding a HeartbeatReply.
type Target struct {
	Via wire.MacAddress
}

// HeartbeatRecord is the per-(origin, sequence) routing state described
// in spec.md §3.
type HeartbeatRecord struct {
	SeenAt                 time.Duration
	NextUpstream           wire.MacAddress
	Hops                   uint32
	Latencies              []LatencySample
	DownstreamObservations map[wire.MacAddress][]Target
}

// Route is a (next_hop, hops, observed_latency) triple.
type Route struct {
	NextHop         wire.MacAddress
	Hops            uint32
	ObservedLatency *time.Duration
}

// historyEntry is the payload stored in the bounded FIFO's list.List.
type historyEntry struct {
	seq uint32
	rec *HeartbeatRecord
}

// history is a bounded, O(1)-front-evicting FIFO of heartbeat records for
// a single origin, keyed by sequence id. container/list gives O(1)
// push-back and O(1) front removal; the companion map gives O(1)
// sequence lookup. No ring-buffer/LRU library exists anywhere in the
// retrieved example pack, so this structural concern is met with the
// standard library (see DESIGN.md).
type history struct {
	order *list.List
	bySeq map[uint32]*list.Element
}

func newHistory() *history {
	return &history{order: list.New(), bySeq: make(map[uint32]*list.Element)}
}

func (h *history) len() int { return h.order.Len() }

// minSeq returns the smallest sequence id currently stored. Only valid
// when len() > 0.
func (h *history) minSeq() uint32 {
	min := ^uint32(0)
	for seq := range h.bySeq {
		if seq < min {
			min = seq
		}
	}
	return min
}

func (h *history) clear() {
	h.order = list.New()
	h.bySeq = make(map[uint32]*list.Element)
}

func (h *history) get(seq uint32) (*HeartbeatRecord, bool) {
	elem, ok := h.bySeq[seq]
	if !ok {
		return nil, false
	}
	return elem.Value.(*historyEntry).rec, true
}

// insert appends a new record for seq, evicting the oldest entry if the
// bound is exceeded. Callers must have already checked seq is not
// present.
func (h *history) insert(seq uint32, rec *HeartbeatRecord, bound int) {
	elem := h.order.PushBack(&historyEntry{seq: seq, rec: rec})
	h.bySeq[seq] = elem
	if h.order.Len() > bound {
		oldest := h.order.Front()
		h.order.Remove(oldest)
		delete(h.bySeq, oldest.Value.(*historyEntry).seq)
	}
}

func (h *history) records() []*HeartbeatRecord {
	recs := make([]*HeartbeatRecord, 0, h.order.Len())
	for e := h.order.Front(); e != nil; e = e.Next() {
		recs = append(recs, e.Value.(*historyEntry).rec)
	}
	return recs
}
