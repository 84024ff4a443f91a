package mailrelay

import (
	"context"
	"log/slog"

	"github.com/fixpoint/repair-api/internal/core"
)

// LogSender is the development fallback used when the relay is disabled.
// It logs the message instead of delivering it and never fails.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg core.EmailMessage) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email delivery skipped (relay disabled)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
