package delivery

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sender hands a rendered message to its simulated destination.
type Sender interface {
	Deliver(ctx context.Context, msg Message) error
}

// LogSender records each message in the structured log.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Deliver(_ context.Context, msg Message) error {
	if s == nil || s.logger == nil {
		return fmt.Errorf("log sender is not initialized")
	}

	s.logger.Info("simulated outreach email",
		zap.String("messageId", msg.ID),
		zap.String("leadId", msg.LeadID),
		zap.String("kind", msg.Kind.String()),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)

	return nil
}
