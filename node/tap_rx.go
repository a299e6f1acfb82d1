package node

import (
	"context"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"vanet-relay/crypto"
	"vanet-relay/device"
	"vanet-relay/metrics"
	"vanet-relay/wire"
)

// tapRxLoop reads locally-originated client traffic off the tap
// interface and injects it into the mesh. Ethernet framing is parsed
// with gopacket so broadcast/multicast client traffic can be told apart
// from unicast without hand-rolling the header layout.
func (n *Node) tapRxLoop(ctx context.Context) {
	buf := make([]byte, n.cfg.MTU+14)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		readLen, err := n.tap.Recv(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.logger.Warn("tap recv failed", zap.Error(err))
			continue
		}

		packet := gopacket.NewPacket(buf[:readLen], layers.LayerTypeEthernet, gopacket.NoCopy)
		ethLayer := packet.Layer(layers.LayerTypeEthernet)
		if ethLayer == nil {
			continue
		}
		eth := ethLayer.(*layers.Ethernet)

		var err2 error
		if n.kind == KindRSU {
			err2 = n.handleTapFromRSU(ctx, eth)
		} else {
			err2 = n.handleTapFromOBU(ctx, eth)
		}
		if err2 != nil {
			n.logger.Debug("tap send failed", zap.Error(err2))
		}
	}
}

func macFromHardwareAddr(hw []byte) wire.MacAddress {
	var m wire.MacAddress
	copy(m[:], hw)
	return m
}

// handleTapFromOBU builds an Upstream frame for client traffic
// originated behind an OBU and sends it toward the cached upstream
// route, retrying once via failover if the first attempt fails
// (spec.md §4.4/§7).
func (n *Node) handleTapFromOBU(ctx context.Context, eth *layers.Ethernet) error {
	payload, err := n.sealIfEnabled(eth.Payload)
	if err != nil {
		return err
	}

	route, ok := n.table.GetRoute(nil)
	if !ok {
		// No RSU route learned yet; nothing to forward toward.
		metrics.UpstreamSendFailure.Inc()
		return device.ErrSendFailed
	}

	frame := wire.SerializeUpstream(route.NextHop, n.own, n.own, payload)
	if err := n.dev.Send(ctx, frame); err == nil {
		return nil
	}

	next, ok := n.table.FailoverCachedUpstream()
	if !ok {
		metrics.UpstreamSendFailure.Inc()
		return device.ErrSendFailed
	}
	frame = wire.SerializeUpstream(next, n.own, n.own, payload)
	if err := n.dev.Send(ctx, frame); err != nil {
		metrics.UpstreamSendFailure.Inc()
		return err
	}
	return nil
}

func (n *Node) sealIfEnabled(payload []byte) ([]byte, error) {
	if n.key == nil {
		return payload, nil
	}
	return crypto.Seal(*n.key, payload)
}
