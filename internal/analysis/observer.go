package analysis

import (
	"context"

	"go.uber.org/zap"

	"contractlens/internal/port"
)

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Observe(context.Context, port.Event) {}

// LogObserver writes pipeline events to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates a LogObserver. Segment starts are logged at debug
// level, failures at warn, everything else at info.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger.Named("analysis")}
}

func (o *LogObserver) Observe(_ context.Context, ev port.Event) {
	fields := []zap.Field{
		zap.String("run_id", ev.RunID),
		zap.String("mode", ev.Mode),
	}
	switch ev.Kind {
	case port.EventRunStarted:
		o.logger.Info("run started",
			append(fields, zap.Int("segments", ev.Total), zap.Int("chars", ev.Size))...)
	case port.EventSegmentStarted:
		o.logger.Debug("segment started",
			append(fields, zap.Int("ordinal", ev.Ordinal), zap.Int("total", ev.Total), zap.Int("chars", ev.Size))...)
	case port.EventSegmentFinished:
		o.logger.Info("segment finished",
			append(fields, zap.Int("ordinal", ev.Ordinal), zap.Int("total", ev.Total), zap.Duration("duration", ev.Duration))...)
	case port.EventSegmentFailed:
		o.logger.Warn("segment failed",
			append(fields, zap.Int("ordinal", ev.Ordinal), zap.Int("total", ev.Total),
				zap.Duration("duration", ev.Duration), zap.Error(ev.Err))...)
	case port.EventRunFinished:
		fields = append(fields, zap.Int("succeeded", ev.Succeeded), zap.Int("total", ev.Total), zap.Duration("duration", ev.Duration))
		if ev.Err != nil {
			o.logger.Warn("run failed", append(fields, zap.Error(ev.Err))...)
			return
		}
		o.logger.Info("run finished", fields...)
	}
}
