// Package pipeline wraps a node's inbound frame dispatch in an onion of
// middleware, the same composition shape the teacher used for its RPC
// call path: each layer may observe, throttle, or short-circuit before
// calling the next one.
package pipeline

import (
	"context"

	"vanet-relay/wire"
)

// FrameHandler processes one inbound frame, already known to come from
// neighbor `from`. raw is the still-undecoded wire buffer; concrete
// per-type dispatch lives in the terminal handler a Node supplies.
type FrameHandler func(ctx context.Context, from wire.MacAddress, raw []byte) error

// Middleware wraps a FrameHandler with cross-cutting behavior.
type Middleware func(next FrameHandler) FrameHandler

// Chain composes middlewares outside-in: the first middleware in the
// list is the outermost layer, matching request order for an onion
// model (mirrors the teacher's middleware.Chain).
func Chain(mws ...Middleware) Middleware {
	return func(final FrameHandler) FrameHandler {
		h := final
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
