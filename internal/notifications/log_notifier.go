package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes outgoing messages to the log instead of delivering them.
// It stands in for a mail provider in development.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.welcome",
		"user_id", in.UserID,
		"email", in.Email,
		"first_name", in.FirstName,
		"verify_url", in.VerifyURL,
	)
	return nil
}
