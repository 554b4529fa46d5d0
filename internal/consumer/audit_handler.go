package consumer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"example.com/mergington/internal/events"
)

// AuditHandler writes every roster change to the audit log.
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{logger: logger}
}

// Handle implements Handler.
func (h *AuditHandler) Handle(ctx context.Context, msg Message) error {
	var action string
	switch msg.EventType {
	case events.TypeParticipantSignedUp:
		action = "signed_up"
	case events.TypeParticipantRemoved:
		action = "removed"
	default:
		return fmt.Errorf("unsupported event type %q", msg.EventType)
	}

	h.logger.Info("roster change",
		zap.String("action", action),
		zap.String("activity", msg.Event.Activity),
		zap.String("email", msg.Event.Email),
		zap.Int("participant_count", msg.Event.ParticipantCount),
		zap.String("event_id", msg.EventID),
		zap.Time("occurred_at", msg.Event.OccurredAt),
	)
	recordRosterSize(msg.Event.Activity, msg.Event.ParticipantCount)
	return nil
}
