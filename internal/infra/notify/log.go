package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"geargrab/internal/app/policies"
)

// LogSender writes email to the log instead of delivering it. Used in dev.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, email policies.Email) policies.SendResult {
	id := uuid.NewString()
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "email",
			"message_id", id,
			"to", email.To,
			"subject", email.Subject,
			"tags", email.Tags,
			"text", email.Text,
		)
	}
	return policies.SendResult{Success: true, MessageID: id}
}
