package routing

import "vanet-relay/wire"

// KnownDownstreamRoutes returns, for an RSU's own origin, the best known
// route toward every OBU observed replying to one of the heartbeats still
// held in its bounded history; OBUs seen only in evicted records are not
// listed. This is the
// reverse-direction counterpart of an OBU's upstream cache: RSUs never
// cache a single "preferred" downstream next hop, since every Downstream
// frame names an explicit destination and is routed independently.
//
// self is the RSU's own MAC, used as the origin key under which its own
// heartbeat replies accumulate downstream observations.
func (t *Table) KnownDownstreamRoutes(self wire.MacAddress) map[wire.MacAddress]Route {
	targets := t.KnownTargets(self)
	if len(targets) == 0 {
		return nil
	}
	out := make(map[wire.MacAddress]Route, len(targets))
	for _, target := range targets {
		if route, ok := t.GetRoute(&target); ok {
			out[target] = route
		}
	}
	return out
}
