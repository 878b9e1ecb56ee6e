package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"signet/internal/port"
)

type sesNotifier struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESNotifier creates a new SES-backed SignerNotifier.
func NewSESNotifier(region, fromAddress, fromName string) (port.SignerNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesNotifier{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesNotifier) SendSigningInvite(ctx context.Context, invite port.SigningInvite) error {
	subject := fmt.Sprintf("You have a document to sign: %s", invite.DocumentTitle)
	htmlBody := buildInviteHTML(invite.Signer.Name, invite.DocumentTitle, invite.SigningURL, invite.ExpiryNote)
	textBody := fmt.Sprintf("Hi %s,\n\nYou have been asked to sign \"%s\". Open the link below to review and sign:\n%s\n\n%s\n\nSignet", invite.Signer.Name, invite.DocumentTitle, invite.SigningURL, invite.ExpiryNote)

	return s.send(ctx, invite.Signer.Email, subject, htmlBody, textBody)
}

func (s *sesNotifier) SendCompletionNotice(ctx context.Context, toEmail, toName, documentTitle, downloadURL string) error {
	subject := fmt.Sprintf("Document completed: %s", documentTitle)
	htmlBody := buildCompletionHTML(toName, documentTitle, downloadURL)
	textBody := fmt.Sprintf("Hi %s,\n\nAll parties have signed \"%s\". You can download the signed document here:\n%s\n\nSignet", toName, documentTitle, downloadURL)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesNotifier) SendDeclineNotice(ctx context.Context, toEmail, toName, documentTitle, reason string) error {
	subject := fmt.Sprintf("Document declined: %s", documentTitle)
	htmlBody := buildDeclineHTML(toName, documentTitle, reason)
	textBody := fmt.Sprintf("Hi %s,\n\n\"%s\" was declined by one of the signing parties.\n\nReason: %s\n\nSignet", toName, documentTitle, reason)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesNotifier) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildInviteHTML(name, title, signingURL, expiryNote string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">You have a document to sign</h2>
  <p>Hi %s,</p>
  <p>You have been asked to review and sign <strong>%s</strong>. Click the button below to open it:</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Review &amp; Sign</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <p style="color: #999; font-size: 12px;">%s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Signet - Document Signing Platform</p>
</body>
</html>`, name, title, signingURL, signingURL, expiryNote)
}

func buildCompletionHTML(name, title, downloadURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Document completed</h2>
  <p>Hi %s,</p>
  <p>All parties have signed <strong>%s</strong>. You can download the signed document below:</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #059669; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Download Signed Document</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Signet - Document Signing Platform</p>
</body>
</html>`, name, title, downloadURL, downloadURL)
}

func buildDeclineHTML(name, title, reason string) string {
	if reason == "" {
		reason = "No reason was provided."
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Document declined</h2>
  <p>Hi %s,</p>
  <p><strong>%s</strong> was declined by one of the signing parties.</p>
  <p style="color: #666;">Reason: %s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Signet - Document Signing Platform</p>
</body>
</html>`, name, title, reason)
}
