package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, s domain.AuditSummary) error {
	n.logger.Info("audit record created",
		zap.Int64("audit_id", s.ID),
		zap.String("event_id", s.EventID),
		zap.String("action", string(s.Action)),
		zap.String("content_type", s.ContentTypeName),
		zap.String("user", s.UserName),
	)
	return nil
}
