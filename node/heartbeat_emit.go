package node

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vanet-relay/wire"
)

// heartbeatLoop periodically broadcasts a fresh Heartbeat for an RSU,
// incrementing the sequence id each time. hello_periodicity_ms from
// config.NodeConfig controls the period.
func (n *Node) heartbeatLoop(ctx context.Context) {
	period := time.Duration(n.cfg.HelloPeriodicity) * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq := n.nextSeq()
			now := n.now()
			// Record our own (origin, seq) before broadcasting so that
			// incoming HeartbeatReplys have a record to attach their
			// downstream observations to (spec.md §4.3, §4.4 step 4).
			n.table.InsertHeartbeat(n.own, seq, 1, n.own, now)
			frame := wire.SerializeHeartbeat(wire.BroadcastMAC, n.own, n.own, now, seq, 1)
			if err := n.dev.Send(ctx, frame); err != nil {
				n.logger.Warn("failed to emit heartbeat", zap.Uint32("seq", seq), zap.Error(err))
			}
		}
	}
}
