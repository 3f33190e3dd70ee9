package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bloomhaus/mailflow/internal/config"
	"github.com/bloomhaus/mailflow/internal/model"
)

// PostmarkProvider delivers through the Postmark email API.
type PostmarkProvider struct {
	serverToken string
	from        string
	baseURL     string
	client      *http.Client
}

// NewPostmarkProvider creates a PostmarkProvider.
func NewPostmarkProvider(cfg config.PostmarkConfig) (*PostmarkProvider, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("postmark: server token is required")
	}
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("postmark: sender address is required")
	}
	return &PostmarkProvider{
		serverToken: cfg.ServerToken,
		from:        cfg.SenderAddress,
		baseURL:     cfg.BaseURL,
		client:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// ID implements Provider.
func (p *PostmarkProvider) ID() string { return "postmark" }

type postmarkRequest struct {
	From     string            `json:"From"`
	To       string            `json:"To"`
	Subject  string            `json:"Subject"`
	HTMLBody string            `json:"HtmlBody,omitempty"`
	TextBody string            `json:"TextBody,omitempty"`
	Metadata map[string]string `json:"Metadata,omitempty"`
}

// Send implements Provider.
func (p *PostmarkProvider) Send(ctx context.Context, payload model.SendPayload) (string, error) {
	reqBody, err := json.Marshal(postmarkRequest{
		From:     p.from,
		To:       payload.To,
		Subject:  payload.Subject,
		HTMLBody: payload.HTMLBody,
		TextBody: payload.TextBody,
		Metadata: map[string]string{"idempotency_key": payload.IdempotencyKey},
	})
	if err != nil {
		return "", fmt.Errorf("postmark: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/email", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("postmark: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.serverToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("postmark: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("postmark: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		MessageID string `json:"MessageID"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("postmark: failed to decode response: %w", err)
	}
	return result.MessageID, nil
}
