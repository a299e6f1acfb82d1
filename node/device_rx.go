package node

import (
	"context"

	"go.uber.org/zap"

	"vanet-relay/crypto"
	"vanet-relay/metrics"
	"vanet-relay/routing"
	"vanet-relay/wire"
)

// deviceRxLoop is the hot path: read one frame at a time from the
// node's device, hand it through the pipeline (logging, per-neighbor
// rate limiting), and dispatch by packet type. It exits when ctx is
// canceled; a read error is logged and the loop keeps reading.
func (n *Node) deviceRxLoop(ctx context.Context) {
	buf := make([]byte, n.cfg.MTU+wire.HeaderSize+64)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		readLen, err := n.dev.Recv(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.logger.Warn("device recv failed", zap.Error(err))
			continue
		}

		frame, err := wire.Parse(buf[:readLen])
		if err != nil {
			n.logger.Debug("dropping malformed frame", zap.Bool("trace", true), zap.Error(err))
			continue
		}

		if err := n.handler(ctx, frame.From(), append([]byte(nil), buf[:readLen]...)); err != nil {
			n.logger.Debug("frame dispatch returned error", zap.Error(err))
		}
	}
}

// dispatch is the pipeline's terminal handler: it re-parses the raw
// buffer (the pipeline only needs the sender MAC) and routes to the
// per-type handler.
func (n *Node) dispatch(ctx context.Context, from wire.MacAddress, raw []byte) error {
	frame, err := wire.Parse(raw)
	if err != nil {
		return err
	}

	switch frame.PacketType() {
	case wire.PacketControl:
		switch frame.ControlType() {
		case wire.ControlHeartbeat:
			return n.handleHeartbeat(ctx, frame, from)
		case wire.ControlHeartbeatReply:
			return n.handleHeartbeatReply(ctx, frame, from)
		}
	case wire.PacketData:
		switch frame.DataType() {
		case wire.DataUpstream:
			return n.handleUpstream(ctx, frame)
		case wire.DataDownstream:
			return n.handleDownstream(ctx, frame)
		}
	}
	return nil
}

// handleHeartbeat records the heartbeat in the routing table, answers it
// directly to the relaying neighbor with a HeartbeatReply, and (OBUs
// only) re-floods it outward with an incremented hop count. Duplicate
// (origin, seq) pairs are recorded (seen_at may move earlier) but never
// re-flooded, bounding the flood to one re-broadcast per node per
// heartbeat.
func (n *Node) handleHeartbeat(ctx context.Context, frame wire.Frame, from wire.MacAddress) error {
	origin := frame.Origin()
	seq := frame.ID()
	hops := frame.Hops()

	isNew, _ := n.table.InsertHeartbeat(origin, seq, hops, from, n.now())
	if n.kind == KindOBU {
		n.table.SelectAndCacheUpstream(origin)
	}

	var reply []byte
	wire.SerializeHeartbeatReplyInto(frame, n.own, n.own, from, &reply)
	if err := n.dev.Send(ctx, reply); err != nil {
		n.logger.Debug("failed to answer heartbeat", zap.Error(err))
	}

	if !isNew || n.kind == KindRSU {
		return nil
	}

	forwarded := wire.SerializeHeartbeat(wire.BroadcastMAC, n.own, origin, frame.Duration(), seq, hops+1)
	return n.dev.Send(ctx, forwarded)
}

// handleHeartbeatReply feeds the reply into the routing table's
// loop/bounce-prevention logic and forwards it toward next_upstream when
// that logic says to.
func (n *Node) handleHeartbeatReply(ctx context.Context, frame wire.Frame, from wire.MacAddress) error {
	origin := frame.Origin()
	seq := frame.ID()
	sender := frame.ReplySender()

	action, nextHop := n.table.InsertHeartbeatReply(origin, seq, sender, from, n.now())
	if n.kind == KindOBU {
		n.table.SelectAndCacheUpstream(origin)
	}
	if action != routing.ReplyForward {
		return nil
	}

	var fwd []byte
	wire.SerializeHeartbeatReplyForwardInto(frame, n.own, nextHop, &fwd)
	return n.dev.Send(ctx, fwd)
}

// handleUpstream delivers an Upstream frame to the local tap if this
// node is an RSU (the root of the upstream flow), or forwards it toward
// the cached upstream route if this node is a transit OBU.
func (n *Node) handleUpstream(ctx context.Context, frame wire.Frame) error {
	if frame.To() != n.own {
		return nil
	}

	if n.kind == KindRSU {
		return n.deliverToTap(ctx, frame.Payload(), frame.DataOrigin())
	}

	route, ok := n.table.GetRoute(nil)
	if !ok {
		metrics.UpstreamSendFailure.Inc()
		return nil
	}
	var out []byte
	wire.SerializeUpstreamForwardInto(frame, n.own, route.NextHop, &out)
	if err := n.dev.Send(ctx, out); err != nil {
		metrics.UpstreamSendFailure.Inc()
		return err
	}
	return nil
}

// handleDownstream delivers a Downstream frame to the local tap if this
// node is the named destination, or forwards it toward the best known
// route to that destination otherwise.
func (n *Node) handleDownstream(ctx context.Context, frame wire.Frame) error {
	if frame.To() != n.own {
		return nil
	}

	dest := frame.Destination()
	if dest == n.own {
		return n.deliverToTap(ctx, frame.Payload(), frame.DataOrigin())
	}

	route, ok := n.table.GetRoute(&dest)
	if !ok {
		return nil
	}
	var out []byte
	wire.SerializeDownstreamForwardInto(frame, n.own, route.NextHop, &out)
	return n.dev.Send(ctx, out)
}

func (n *Node) deliverToTap(ctx context.Context, payload []byte, origin wire.MacAddress) error {
	if n.key != nil {
		pt, err := crypto.Open(*n.key, payload)
		if err != nil {
			metrics.DecryptFailure.Inc()
			n.logger.Warn("dropping payload: decryption failed", zap.Stringer("origin", origin))
			return nil
		}
		payload = pt
	}
	if n.tap == nil {
		return nil
	}
	return n.tap.SendAll(ctx, payload)
}
