package simulate

import (
	"context"
	"errors"

	"vanet-relay/wire"
)

// ErrBufferTooSmall is returned by Medium.Recv when the caller-supplied
// buffer cannot hold the next queued frame.
var ErrBufferTooSmall = errors.New("simulate: receive buffer too small")

// Medium implements device.Device over a set of simulated point-to-point
// Channels, standing in for a node's real radio interface in scenario
// tests (spec.md §8 S1-S6). Every neighbor channel's deliveries land on
// one shared inbound queue that Recv drains in order.
type Medium struct {
	own      wire.MacAddress
	channels map[wire.MacAddress]*Channel
	inbound  chan []byte
}

// NewMedium creates an empty Medium for a node identified by own.
// inboundCapacity bounds how many delivered-but-unread frames may queue
// before Channel delivery goroutines block.
func NewMedium(own wire.MacAddress, inboundCapacity int) *Medium {
	return &Medium{
		own:      own,
		channels: make(map[wire.MacAddress]*Channel),
		inbound:  make(chan []byte, inboundCapacity),
	}
}

// AddLink registers the outbound Channel used to reach neighbor, and
// returns the DeliverFunc the peer's own outbound Channel toward this
// Medium should be constructed with.
func (m *Medium) AddLink(neighbor wire.MacAddress, out *Channel) DeliverFunc {
	m.channels[neighbor] = out
	return func(frame []byte) { m.inbound <- frame }
}

// MAC returns this Medium's own address.
func (m *Medium) MAC() wire.MacAddress { return m.own }

// Send parses frame's destination and forwards it over the matching
// unicast channel, or fans it out over every registered channel when
// the destination is the broadcast/group address.
func (m *Medium) Send(ctx context.Context, frame []byte) error {
	f, err := wire.Parse(frame)
	if err != nil {
		return err
	}
	to := f.To()
	if to.IsGroup() {
		for _, ch := range m.channels {
			if err := ch.Send(frame); err != nil {
				return err
			}
		}
		return nil
	}
	ch, ok := m.channels[to]
	if !ok {
		return ErrWrongMAC
	}
	return ch.Send(frame)
}

// SendVectored sends each frame in turn; the simulated medium has no
// native scatter-gather path to batch them over.
func (m *Medium) SendVectored(ctx context.Context, frames [][]byte) error {
	for _, frame := range frames {
		if err := m.Send(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// Recv blocks until a delivered frame is available, ctx is canceled, or
// buf is too small to hold the next frame.
func (m *Medium) Recv(ctx context.Context, buf []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case frame := <-m.inbound:
		if len(frame) > len(buf) {
			return 0, ErrBufferTooSmall
		}
		return copy(buf, frame), nil
	}
}
