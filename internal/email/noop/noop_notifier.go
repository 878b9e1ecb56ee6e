package noop

import (
	"context"
	"log"

	"signet/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a no-op SignerNotifier that logs deliveries to stdout.
func NewNoopNotifier() port.SignerNotifier {
	return &noopNotifier{}
}

func (n *noopNotifier) SendSigningInvite(_ context.Context, invite port.SigningInvite) error {
	log.Printf("[NOOP EMAIL] Signing invite for %s (%s) on %q: %s",
		invite.Signer.Name, invite.Signer.Email, invite.DocumentTitle, invite.SigningURL)
	return nil
}

func (n *noopNotifier) SendCompletionNotice(_ context.Context, toEmail, toName, documentTitle, downloadURL string) error {
	log.Printf("[NOOP EMAIL] Completion notice for %s (%s) on %q: %s", toName, toEmail, documentTitle, downloadURL)
	return nil
}

func (n *noopNotifier) SendDeclineNotice(_ context.Context, toEmail, toName, documentTitle, reason string) error {
	log.Printf("[NOOP EMAIL] Decline notice for %s (%s) on %q: %s", toName, toEmail, documentTitle, reason)
	return nil
}
