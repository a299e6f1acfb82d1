package routing

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"vanet-relay/wire"
)

// candidateAgg accumulates, across every stored heartbeat record, the
// evidence for one next-hop candidate toward a target.
type candidateAgg struct {
	nextHop   wire.MacAddress
	hops      uint32
	latencies []time.Duration
}

func (c *candidateAgg) latencyScore() float64 {
	if len(c.latencies) == 0 {
		return math.Inf(1)
	}
	min := c.latencies[0]
	var sum time.Duration
	for _, d := range c.latencies {
		sum += d
		if d < min {
			min = d
		}
	}
	avg := sum / time.Duration(len(c.latencies))
	return float64(min) + float64(avg)
}

// candidateLess implements the deterministic scoring order from
// spec.md §4.2: lower (latency_score, hops) wins, ties broken by MAC
// byte order so every node in the network picks the same winner.
func candidateLess(a, b *candidateAgg) bool {
	as, bs := a.latencyScore(), b.latencyScore()
	if as != bs {
		return as < bs
	}
	if a.hops != b.hops {
		return a.hops < b.hops
	}
	return a.nextHop.Less(b.nextHop)
}

// routeForLocked computes the best known route to target. Callers must
// hold t.mu (read or write).
func (t *Table) routeForLocked(target wire.MacAddress) (Route, bool) {
	cands := t.rankedCandidatesLocked(target)
	if len(cands) == 0 {
		return Route{}, false
	}
	return cands[0], true
}

// rankedCandidatesLocked returns every known next-hop candidate toward
// target, best first. Callers must hold t.mu.
func (t *Table) rankedCandidatesLocked(target wire.MacAddress) []Route {
	byHop := make(map[wire.MacAddress]*candidateAgg)

	get := func(nh wire.MacAddress, hops uint32) *candidateAgg {
		c, ok := byHop[nh]
		if !ok {
			c = &candidateAgg{nextHop: nh, hops: hops}
			byHop[nh] = c
		} else if hops < c.hops {
			c.hops = hops
		}
		return c
	}

	for origin, h := range t.routes {
		for _, rec := range h.records() {
			if origin == target {
				c := get(rec.NextUpstream, rec.Hops)
				for _, s := range rec.Latencies {
					if s.Carrier == rec.NextUpstream {
						c.latencies = append(c.latencies, s.Delay)
					}
				}
			}
			if targets, ok := rec.DownstreamObservations[target]; ok {
				for _, tg := range targets {
					c := get(tg.Via, rec.Hops+1)
					for _, s := range rec.Latencies {
						if s.Carrier == tg.Via {
							c.latencies = append(c.latencies, s.Delay)
						}
					}
				}
			}
		}
	}

	if len(byHop) == 0 {
		return nil
	}

	agg := make([]*candidateAgg, 0, len(byHop))
	for _, c := range byHop {
		agg = append(agg, c)
	}
	sort.Slice(agg, func(i, j int) bool { return candidateLess(agg[i], agg[j]) })

	routes := make([]Route, len(agg))
	for i, c := range agg {
		route := Route{NextHop: c.nextHop, Hops: c.hops}
		if len(c.latencies) > 0 {
			min := c.latencies[0]
			for _, d := range c.latencies[1:] {
				if d < min {
					min = d
				}
			}
			route.ObservedLatency = &min
		}
		routes[i] = route
	}
	return routes
}

// GetRoute is a pure read: it performs no mutation and takes only a
// read lock. target == nil asks for the OBU's currently cached upstream
// route rather than a lookup by MAC.
func (t *Table) GetRoute(target *wire.MacAddress) (Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if target == nil {
		if t.cachedUpstream == nil {
			return Route{}, false
		}
		return *t.cachedUpstream, true
	}
	return t.routeForLocked(*target)
}

// SelectAndCacheUpstream recomputes the ranked candidate list toward
// target and replaces the cached head with the new best only when the
// new best has a strictly lower (latency_score, hops); the MAC-order tie
// break is not consulted here. This hysteresis avoids flapping between
// routes of equivalent quality (spec.md §4.2).
func (t *Table) SelectAndCacheUpstream(target wire.MacAddress) (Route, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ranked := t.rankedCandidatesLocked(target)
	if len(ranked) == 0 {
		return Route{}, false
	}
	if len(ranked) > t.cachedCandidates {
		ranked = ranked[:t.cachedCandidates]
	}

	if t.cachedUpstream == nil {
		t.candidateList = ranked
		head := ranked[0]
		t.cachedUpstream = &head
		t.logger.Info("upstream selected",
			zap.Stringer("next_hop", head.NextHop),
			zap.Uint32("hops", head.Hops),
		)
		return head, true
	}

	newHead := aggFromRoute(ranked[0])
	oldHead := aggFromRoute(*t.cachedUpstream)
	newScore, oldScore := newHead.latencyScore(), oldHead.latencyScore()
	if newScore < oldScore || (newScore == oldScore && newHead.hops < oldHead.hops) {
		t.candidateList = ranked
		head := ranked[0]
		t.cachedUpstream = &head
		t.logger.Info("upstream replaced",
			zap.Stringer("old", oldHead.nextHop),
			zap.Stringer("new", head.NextHop),
		)
	}
	return *t.cachedUpstream, true
}

func aggFromRoute(r Route) *candidateAgg {
	c := &candidateAgg{nextHop: r.NextHop, hops: r.Hops}
	if r.ObservedLatency != nil {
		c.latencies = []time.Duration{*r.ObservedLatency}
	}
	return c
}

// FailoverCachedUpstream drops the current head of the candidate list
// and promotes the next entry, without any rescoring. It is a pure
// rotation: candidates already ranked by SelectAndCacheUpstream are
// tried in order until the list is exhausted.
func (t *Table) FailoverCachedUpstream() (wire.MacAddress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.candidateList) == 0 {
		t.cachedUpstream = nil
		return wire.MacAddress{}, false
	}
	t.candidateList = t.candidateList[1:]
	if len(t.candidateList) == 0 {
		t.cachedUpstream = nil
		return wire.MacAddress{}, false
	}
	head := t.candidateList[0]
	t.cachedUpstream = &head
	t.logger.Info("upstream failover", zap.Stringer("next_hop", head.NextHop))
	return head.NextHop, true
}
