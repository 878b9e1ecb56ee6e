package port

import (
	"context"

	"signet/internal/domain"
)

// SigningInvite carries everything needed to invite one signer.
type SigningInvite struct {
	Signer        domain.Signer
	DocumentTitle string
	SigningURL    string
	ExpiryNote    string
}

// SignerNotifier delivers signing-protocol notifications. Email delivery is
// an external collaborator; implementations live behind this contract.
type SignerNotifier interface {
	SendSigningInvite(ctx context.Context, invite SigningInvite) error
	SendCompletionNotice(ctx context.Context, toEmail, toName, documentTitle, downloadURL string) error
	SendDeclineNotice(ctx context.Context, toEmail, toName, documentTitle, reason string) error
}
