package routing

import (
	"testing"
	"time"
)

func mac(b byte) (m [6]byte) {
	for i := range m {
		m[i] = b
	}
	return m
}

func newTestTable(helloHistory, cachedCandidates int) *Table {
	return New(mac(0x01), helloHistory, cachedCandidates, nil)
}

// TestBoundedHistoryEvictsOldest is property P3: history never exceeds
// hello_history entries, and the oldest sequence is the one evicted.
func TestBoundedHistoryEvictsOldest(t *testing.T) {
	tbl := newTestTable(3, 3)
	origin := mac(0xA0)
	via := mac(0xB0)

	for seq := uint32(1); seq <= 5; seq++ {
		tbl.InsertHeartbeat(origin, seq, 1, via, time.Duration(seq)*time.Millisecond)
	}

	h := tbl.routes[origin]
	if h.len() != 3 {
		t.Fatalf("history len = %d, want 3", h.len())
	}
	for _, stale := range []uint32{1, 2} {
		if _, ok := h.get(stale); ok {
			t.Fatalf("seq %d should have been evicted", stale)
		}
	}
	for _, kept := range []uint32{3, 4, 5} {
		if _, ok := h.get(kept); !ok {
			t.Fatalf("seq %d should still be present", kept)
		}
	}
}

// TestSequenceWraparoundClearsHistory is property P4.
func TestSequenceWraparoundClearsHistory(t *testing.T) {
	tbl := newTestTable(10, 3)
	origin := mac(0xA0)
	via := mac(0xB0)

	tbl.InsertHeartbeat(origin, 100, 1, via, 0)
	tbl.InsertHeartbeat(origin, 101, 1, via, time.Millisecond)

	tbl.InsertHeartbeat(origin, 5, 1, via, 2*time.Millisecond)

	h := tbl.routes[origin]
	if h.len() != 1 {
		t.Fatalf("history len after wraparound = %d, want 1", h.len())
	}
	if _, ok := h.get(100); ok {
		t.Fatalf("seq 100 should have been cleared on wraparound")
	}
	if _, ok := h.get(5); !ok {
		t.Fatalf("seq 5 should be present after wraparound")
	}
}

// TestInsertHeartbeatDuplicateUpdatesSeenAtOnly is part of P3/P5: a
// duplicate sequence only ever moves seen_at earlier, never changes the
// recorded next hop.
func TestInsertHeartbeatDuplicateUpdatesSeenAtOnly(t *testing.T) {
	tbl := newTestTable(10, 3)
	origin := mac(0xA0)
	via1 := mac(0xB0)
	via2 := mac(0xC0)

	isNew, changed := tbl.InsertHeartbeat(origin, 1, 1, via1, 10*time.Millisecond)
	if !isNew || !changed {
		t.Fatalf("first insertion for a fresh origin should be new and change the best route")
	}
	isNew, changed = tbl.InsertHeartbeat(origin, 1, 1, via2, 5*time.Millisecond)
	if isNew {
		t.Fatalf("duplicate sequence must not be reported as new")
	}
	if changed {
		t.Fatalf("duplicate sequence must not be treated as a route change")
	}

	rec, ok := tbl.routes[origin].get(1)
	if !ok {
		t.Fatalf("record missing")
	}
	if rec.NextUpstream != via1 {
		t.Fatalf("next_upstream overwritten by duplicate insert")
	}
	if rec.SeenAt != 5*time.Millisecond {
		t.Fatalf("seen_at = %v, want updated to earlier value", rec.SeenAt)
	}
}

// TestHeartbeatReplySkipForwardOnImmediateNeighbor and
// TestHeartbeatReplyLoopDetected cover property P6.
func TestHeartbeatReplySkipForwardOnImmediateNeighbor(t *testing.T) {
	tbl := newTestTable(10, 3)
	origin := mac(0xA0)
	nextHop := mac(0xB0)
	replier := mac(0xD0)

	tbl.InsertHeartbeat(origin, 1, 1, nextHop, 0)

	action, _ := tbl.InsertHeartbeatReply(origin, 1, replier, nextHop, time.Millisecond)
	if action != ReplySkipForward {
		t.Fatalf("action = %v, want ReplySkipForward", action)
	}
}

func TestHeartbeatReplyLoopDetected(t *testing.T) {
	tbl := newTestTable(10, 3)
	origin := mac(0xA0)
	replier := mac(0xD0)
	otherNeighbor := mac(0xE0)

	// next_upstream toward origin is the replier itself.
	tbl.InsertHeartbeat(origin, 1, 1, replier, 0)

	action, _ := tbl.InsertHeartbeatReply(origin, 1, replier, otherNeighbor, time.Millisecond)
	if action != ReplyLoopDetected {
		t.Fatalf("action = %v, want ReplyLoopDetected", action)
	}
}

func TestHeartbeatReplyForwardsOtherwise(t *testing.T) {
	tbl := newTestTable(10, 3)
	origin := mac(0xA0)
	nextHop := mac(0xB0)
	replier := mac(0xD0)
	via := mac(0xE0)

	tbl.InsertHeartbeat(origin, 1, 1, nextHop, 0)

	action, next := tbl.InsertHeartbeatReply(origin, 1, replier, via, time.Millisecond)
	if action != ReplyForward {
		t.Fatalf("action = %v, want ReplyForward", action)
	}
	if next != nextHop {
		t.Fatalf("next = %v, want %v", next, nextHop)
	}
}

func TestHeartbeatReplyUnknownSequenceDropped(t *testing.T) {
	tbl := newTestTable(10, 3)
	origin := mac(0xA0)

	action, _ := tbl.InsertHeartbeatReply(origin, 99, mac(0xD0), mac(0xE0), time.Millisecond)
	if action != ReplyDrop {
		t.Fatalf("action = %v, want ReplyDrop", action)
	}
}

// TestKnownTargetsEnumeratesObservedDownstreamNodes grounds the RSU
// broadcast fan-out enumeration path.
func TestKnownTargetsEnumeratesObservedDownstreamNodes(t *testing.T) {
	tbl := newTestTable(10, 3)
	self := mac(0x01)
	obuA := mac(0xA1)
	obuB := mac(0xA2)
	via := mac(0xB0)

	tbl.InsertHeartbeat(self, 1, 0, self, 0)
	tbl.InsertHeartbeatReply(self, 1, obuA, via, time.Millisecond)
	tbl.InsertHeartbeatReply(self, 1, obuB, via, 2*time.Millisecond)

	targets := tbl.KnownTargets(self)
	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}
}
