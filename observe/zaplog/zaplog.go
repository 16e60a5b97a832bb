// Package zaplog writes lazy cell lifecycle events to a zap logger.
package zaplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	lazy "github.com/probablyarth/lazy-go"
)

// Observer logs every event it receives. Reads, misses and discarded
// publications are logged at debug level, created values at info, transient
// failures at warn, and cached faults and recursive reads at error.
type Observer struct {
	logger *zap.Logger
}

var _ lazy.Observer = (*Observer)(nil)

// New returns an Observer writing to logger. A nil logger is replaced by a
// no-op logger.
func New(logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{logger: logger.Named("lazy")}
}

func (o *Observer) On(eventData lazy.EventData) {
	fields := []zap.Field{
		zap.String("event", eventData.Event.String()),
		zap.String("cell_id", eventData.ID),
		zap.Stringer("mode", eventData.Mode),
	}
	if eventData.Cell != "" {
		fields = append(fields, zap.String("cell", eventData.Cell))
	}
	if eventData.Group != "" && eventData.Group != eventData.Cell {
		fields = append(fields, zap.String("group", eventData.Group))
	}
	if eventData.Duration > 0 {
		fields = append(fields, zap.Duration("duration", eventData.Duration))
	}
	if eventData.Err != nil {
		fields = append(fields, zap.Error(eventData.Err))
	}

	switch eventData.Event {
	case lazy.EventCreated:
		o.logger.Info("lazy value created", fields...)
	case lazy.EventFaulted:
		if eventData.Sticky {
			o.logger.Error("lazy value faulted", fields...)
		} else {
			o.logger.Warn("lazy value initialization failed, will retry", fields...)
		}
	case lazy.EventRecursive:
		o.logger.Error("lazy value read during its own initialization", fields...)
	default:
		if ce := o.logger.Check(zapcore.DebugLevel, "lazy value "+eventData.Event.String()); ce != nil {
			ce.Write(fields...)
		}
	}
}
