package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender logs outgoing email instead of delivering it. Used when no SMTP
// host is configured, typically in development.
type LogSender struct {
	lg *zap.Logger
}

var _ Sender = (*LogSender)(nil)

// NewLogSender creates a LogSender.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, m Message) error {
	s.lg.Info("email suppressed (no smtp host configured)",
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject),
	)
	return nil
}
