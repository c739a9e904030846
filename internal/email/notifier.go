// Package email sends the post-provisioning welcome notification. Sending is
// strictly best-effort: a mail failure is logged and never alters the outcome
// of a login.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idbridge/internal/federation"
	"github.com/dropDatabas3/idbridge/internal/observability/logger"
)

// Notifier is notified after a new account is provisioned.
type Notifier interface {
	AccountProvisioned(ctx context.Context, identity federation.NormalizedIdentity)
}

// Noop discards notifications. Used when SMTP is not configured.
type Noop struct{}

func (Noop) AccountProvisioned(context.Context, federation.NormalizedIdentity) {}

// WelcomeNotifier sends a short welcome email via SMTP.
type WelcomeNotifier struct {
	sender  *SMTPSender
	subject string
}

// NewWelcomeNotifier creates a notifier over the given sender.
func NewWelcomeNotifier(sender *SMTPSender, subject string) *WelcomeNotifier {
	if subject == "" {
		subject = "Your account has been created"
	}
	return &WelcomeNotifier{sender: sender, subject: subject}
}

// AccountProvisioned sends the welcome message. Errors are logged only.
func (n *WelcomeNotifier) AccountProvisioned(ctx context.Context, id federation.NormalizedIdentity) {
	log := logger.From(ctx).With(logger.Component("email.welcome"))

	name := strings.TrimSpace(id.FirstName)
	if name == "" {
		name = id.Email
	}
	text := fmt.Sprintf(
		"Hi %s,\n\nAn account linked to %s was created for you after your first sign-in.\n"+
			"If this wasn't you, contact support.\n", name, id.Email)

	if err := n.sender.Send(id.Email, n.subject, "", text); err != nil {
		log.Warn("welcome email failed", logger.Email(id.Email), logger.Err(err))
		return
	}
	log.Info("welcome email sent", logger.Email(id.Email))
}
