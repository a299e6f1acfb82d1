package node

import (
	"context"

	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"vanet-relay/wire"
)

// handleTapFromRSU turns locally-originated (wired-side) traffic into
// Downstream frames. A unicast Ethernet destination maps directly to one
// known OBU; a broadcast/multicast destination fans out to every OBU
// this RSU has observed answering one of the heartbeats still held in
// its bounded history (older ones are evicted), each frame encrypted
// under its own freshly-drawn nonce (spec.md §4.4/§4.5) so no ciphertext
// is ever reused across recipients.
func (n *Node) handleTapFromRSU(ctx context.Context, eth *layers.Ethernet) error {
	dst := macFromHardwareAddr(eth.DstMAC)

	if !dst.IsGroup() {
		return n.sendDownstreamTo(ctx, dst, eth.Payload)
	}

	routes := n.table.KnownDownstreamRoutes(n.own)
	if len(routes) == 0 {
		return nil
	}
	var firstErr error
	for obu := range routes {
		if err := n.sendDownstreamTo(ctx, obu, eth.Payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (n *Node) sendDownstreamTo(ctx context.Context, destination wire.MacAddress, clientPayload []byte) error {
	route, ok := n.table.GetRoute(&destination)
	if !ok {
		n.logger.Debug("no known route to destination", zap.Stringer("destination", destination))
		return nil
	}
	payload, err := n.sealIfEnabled(clientPayload)
	if err != nil {
		return err
	}
	frame := wire.SerializeDownstream(route.NextHop, n.own, n.own, destination, payload)
	return n.dev.Send(ctx, frame)
}
