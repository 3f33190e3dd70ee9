package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/bloomhaus/mailflow/internal/config"
	"github.com/bloomhaus/mailflow/internal/model"
)

// GmailProvider delivers through the Gmail API.
type GmailProvider struct {
	service       *gmail.Service
	senderAddress string
	senderName    string
}

// NewGmailProvider creates a GmailProvider. It expects a service account
// credentials JSON with domain-wide delegation for the sender mailbox.
func NewGmailProvider(ctx context.Context, cfg config.GmailConfig) (*GmailProvider, error) {
	if cfg.CredentialsJSON == "" {
		return nil, fmt.Errorf("gmail: credentials JSON is required")
	}
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
	}

	// Impersonate the sender mailbox
	jwtConfig.Subject = cfg.SenderAddress

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	return &GmailProvider{
		service:       svc,
		senderAddress: cfg.SenderAddress,
		senderName:    cfg.SenderName,
	}, nil
}

// ID implements Provider.
func (g *GmailProvider) ID() string { return "gmail" }

// Send implements Provider by building a MIME message and submitting it via
// the Gmail API.
func (g *GmailProvider) Send(ctx context.Context, payload model.SendPayload) (string, error) {
	from := g.senderAddress
	if g.senderName != "" {
		from = fmt.Sprintf("%s <%s>", g.senderName, g.senderAddress)
	}

	var content string
	if payload.HTMLBody != "" && payload.TextBody != "" {
		boundary := "boundary_mailflow_email"
		content = strings.Join([]string{
			"From: " + from,
			"To: " + payload.To,
			"Subject: " + payload.Subject,
			"X-Idempotency-Key: " + payload.IdempotencyKey,
			"MIME-Version: 1.0",
			"Content-Type: multipart/alternative; boundary=" + boundary,
			"",
			"--" + boundary,
			"Content-Type: text/plain; charset=UTF-8",
			"Content-Transfer-Encoding: 7bit",
			"",
			payload.TextBody,
			"",
			"--" + boundary,
			"Content-Type: text/html; charset=UTF-8",
			"Content-Transfer-Encoding: 7bit",
			"",
			payload.HTMLBody,
			"",
			"--" + boundary + "--",
		}, "\r\n")
	} else if payload.HTMLBody != "" {
		content = strings.Join([]string{
			"From: " + from,
			"To: " + payload.To,
			"Subject: " + payload.Subject,
			"X-Idempotency-Key: " + payload.IdempotencyKey,
			"MIME-Version: 1.0",
			"Content-Type: text/html; charset=UTF-8",
			"",
			payload.HTMLBody,
		}, "\r\n")
	} else {
		content = strings.Join([]string{
			"From: " + from,
			"To: " + payload.To,
			"Subject: " + payload.Subject,
			"X-Idempotency-Key: " + payload.IdempotencyKey,
			"MIME-Version: 1.0",
			"Content-Type: text/plain; charset=UTF-8",
			"",
			payload.TextBody,
		}, "\r\n")
	}

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(content)),
	}

	sent, err := g.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail: failed to send email: %w", err)
	}
	return sent.Id, nil
}
