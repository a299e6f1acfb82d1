// Package simulate provides an in-process channel model standing in for
// the real 802.11p/DSRC radio link between two nodes in tests and
// scenario harnesses: configurable latency, jitter, and loss, with
// asynchronous scheduled delivery instead of a real socket.
package simulate

import (
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"vanet-relay/metrics"
	"vanet-relay/wire"
)

// ErrWrongMAC is returned when a frame addressed to neither the
// channel's receiver nor a broadcast/group address is sent over it.
var ErrWrongMAC = errors.New("simulate: frame addressed to a different MAC")

// Parameters is the per-link configuration a Channel applies to every
// frame it carries. It is swapped atomically so a running scenario can
// change link quality mid-test without a lock around the send path.
type Parameters struct {
	Latency time.Duration
	Jitter  time.Duration
	Loss    float64
}

// DeliverFunc is invoked, on its own goroutine, once a sent frame's
// scheduled delay has elapsed.
type DeliverFunc func(frame []byte)

// Channel models one directed link from sender to receiver. Two Channel
// values, one per direction, model a bidirectional link.
type Channel struct {
	sender   wire.MacAddress
	receiver wire.MacAddress

	params  atomic.Pointer[Parameters]
	deliver DeliverFunc
	rng     *rand.Rand
}

// NewChannel builds a Channel from sender to receiver with the given
// initial Parameters. seed makes loss/jitter draws reproducible across
// runs of the same scenario test; distinct channels should use distinct
// seeds so their loss/jitter sequences are independent.
func NewChannel(sender, receiver wire.MacAddress, params Parameters, seed uint64, deliver DeliverFunc) *Channel {
	c := &Channel{
		sender:   sender,
		receiver: receiver,
		deliver:  deliver,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	c.params.Store(&params)
	return c
}

// SetParams atomically swaps the link's latency/jitter/loss parameters.
func (c *Channel) SetParams(p Parameters) {
	c.params.Store(&p)
}

// Params returns the link's current parameters.
func (c *Channel) Params() Parameters {
	return *c.params.Load()
}

// Send schedules frame for delivery after a latency+jitter delay, or
// drops it per the configured loss probability. It returns ErrWrongMAC
// if frame is not addressed to this channel's receiver (and is not a
// broadcast/group frame), since that indicates a simulation wiring bug
// rather than a real network condition.
func (c *Channel) Send(frame []byte) error {
	f, err := wire.Parse(frame)
	if err != nil {
		return err
	}
	to := f.To()
	if to != c.receiver && !to.IsGroup() {
		return ErrWrongMAC
	}

	key := metrics.ChannelKey(c.sender, c.receiver)
	params := c.Params()
	if params.Loss > 0 && c.rng.Float64() < params.Loss {
		metrics.ChannelDroppedByLoss.WithLabelValues(key).Inc()
		return nil
	}

	delay := params.Latency
	if params.Jitter > 0 {
		// Symmetric sample in [-Jitter, +Jitter], then clamp to zero: a
		// one-sided draw would skew both the mean and the median toward
		// latency+jitter/2 instead of latency (spec.md §4.6).
		delay += time.Duration(c.rng.Int64N(2*int64(params.Jitter)+1)) - params.Jitter
		if delay < 0 {
			delay = 0
		}
	}
	metrics.ChannelDeliveryLatency.WithLabelValues(key).Observe(delay.Seconds())

	buf := make([]byte, len(frame))
	copy(buf, frame)
	time.AfterFunc(delay, func() { c.deliver(buf) })
	return nil
}
