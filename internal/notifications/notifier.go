package notifications

import "context"

// WelcomeInput is the message sent after registration. VerifyURL carries the
// email verification token.
type WelcomeInput struct {
	UserID    string
	Email     string
	FirstName string
	VerifyURL string
}

type Notifier interface {
	SendWelcome(ctx context.Context, in WelcomeInput) error
}
