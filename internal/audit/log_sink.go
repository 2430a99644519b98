package audit

import (
	"context"

	"go.uber.org/zap"

	"cipherchat/internal/domain"
)

// LogSink logs events. Failures and suspicious activity are logged at warn
// level, everything else at info.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink returns a LogSink writing through logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{log: logger.Named("security")}
}

// Emit implements domain.EventSink.
func (s *LogSink) Emit(_ context.Context, ev domain.SecurityEvent) error {
	fields := []zap.Field{
		zap.String("event_type", string(ev.EventType)),
		zap.String("details", ev.Details),
		zap.Float64("timestamp", ev.Timestamp.Seconds),
	}
	if ev.Identity != "" {
		fields = append(fields, zap.String("identity", string(ev.Identity)))
	}
	switch {
	case ev.EventType.IsFailure(),
		ev.EventType == domain.EventSuspiciousActivity,
		ev.EventType == domain.EventSuspiciousMessageContent,
		ev.EventType == domain.EventExpiredMessage:
		s.log.Warn("security event", fields...)
	default:
		s.log.Info("security event", fields...)
	}
	return nil
}

var _ domain.EventSink = (*LogSink)(nil)
