package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bloomhaus/mailflow/internal/config"
	"github.com/bloomhaus/mailflow/internal/model"
)

// MailgunProvider delivers through the Mailgun messages API.
type MailgunProvider struct {
	apiKey  string
	domain  string
	from    string
	baseURL string
	client  *http.Client
}

// NewMailgunProvider creates a MailgunProvider.
func NewMailgunProvider(cfg config.MailgunConfig) (*MailgunProvider, error) {
	if cfg.APIKey == "" || cfg.Domain == "" {
		return nil, fmt.Errorf("mailgun: api key and domain are required")
	}
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("mailgun: sender address is required")
	}

	from := cfg.SenderAddress
	if cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderAddress)
	}

	return &MailgunProvider{
		apiKey:  cfg.APIKey,
		domain:  cfg.Domain,
		from:    from,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// ID implements Provider.
func (m *MailgunProvider) ID() string { return "mailgun" }

// Send implements Provider.
func (m *MailgunProvider) Send(ctx context.Context, payload model.SendPayload) (string, error) {
	form := url.Values{}
	form.Set("from", m.from)
	form.Set("to", payload.To)
	form.Set("subject", payload.Subject)
	if payload.TextBody != "" {
		form.Set("text", payload.TextBody)
	}
	if payload.HTMLBody != "" {
		form.Set("html", payload.HTMLBody)
	}
	form.Set("v:idempotency-key", payload.IdempotencyKey)

	endpoint := fmt.Sprintf("%s/v3/%s/messages", m.baseURL, m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("mailgun: failed to build request: %w", err)
	}
	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailgun: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("mailgun: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("mailgun: failed to decode response: %w", err)
	}
	return result.ID, nil
}
