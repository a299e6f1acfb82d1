package pipeline

import (
	"context"

	"go.uber.org/zap"

	"vanet-relay/wire"
)

// LoggingMiddleware logs each inbound frame at debug level and any
// terminal-handler error at warn level, the same before/after shape as
// the teacher's logging middleware.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next FrameHandler) FrameHandler {
		return func(ctx context.Context, from wire.MacAddress, raw []byte) error {
			logger.Debug("frame received", zap.Stringer("from", from), zap.Int("len", len(raw)))
			err := next(ctx, from, raw)
			if err != nil {
				logger.Warn("frame handling failed", zap.Stringer("from", from), zap.Error(err))
			}
			return err
		}
	}
}
