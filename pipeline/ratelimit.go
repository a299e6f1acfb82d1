package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vanet-relay/wire"
)

// RateLimitMiddleware throttles inbound frames per transit neighbor,
// guarding against a single misbehaving or compromised node flooding
// control-plane processing. Limits are tracked with
// golang.org/x/time/rate, one token bucket per sender MAC, created
// lazily and kept for the node's lifetime.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	limiters map[wire.MacAddress]*rate.Limiter
	r        rate.Limit
	burst    int
	logger   *zap.Logger
}

// NewRateLimitMiddleware builds a middleware allowing up to r frames per
// second, per neighbor, with the given burst.
func NewRateLimitMiddleware(r rate.Limit, burst int, logger *zap.Logger) *RateLimitMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitMiddleware{
		limiters: make(map[wire.MacAddress]*rate.Limiter),
		r:        r,
		burst:    burst,
		logger:   logger,
	}
}

func (m *RateLimitMiddleware) limiterFor(from wire.MacAddress) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[from]
	if !ok {
		l = rate.NewLimiter(m.r, m.burst)
		m.limiters[from] = l
	}
	return l
}

// Middleware returns the pipeline.Middleware that enforces the limiter.
// Frames exceeding the bucket are dropped silently (not forwarded to
// the terminal handler) rather than erroring, since a flooding neighbor
// is expected, not exceptional.
func (m *RateLimitMiddleware) Middleware() Middleware {
	return func(next FrameHandler) FrameHandler {
		return func(ctx context.Context, from wire.MacAddress, raw []byte) error {
			if !m.limiterFor(from).Allow() {
				m.logger.Debug("frame dropped by rate limit", zap.Stringer("from", from))
				return nil
			}
			return next(ctx, from, raw)
		}
	}
}
