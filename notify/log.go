// Package notify provides delivery adapters for feedback-token invitations.
// The real transport (the platform's mailer) lives outside this service; the
// adapters here satisfy the issuer's Notifier contract.
package notify

import (
	"context"
	"log/slog"

	"clubflow/token"
)

// LogNotifier is the development default: it records that a delivery is due
// without writing the secret anywhere. Deployments plug in the platform
// mailer instead.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send implements token.Notifier.
func (n *LogNotifier) Send(ctx context.Context, email string, inv token.Invitation) error {
	n.logger.InfoContext(ctx, "feedback invitation ready for delivery",
		"recipient", email,
		"event_id", inv.EventID,
		"about_club", inv.AboutClubID,
		"expires_at", inv.ExpiresAt,
	)
	return nil
}
