package provider

import (
	"context"
	"fmt"

	"github.com/bloomhaus/mailflow/internal/config"
	"github.com/bloomhaus/mailflow/internal/logger"
)

// BuildChain constructs the provider chain from config, honoring the
// configured priority order and skipping providers whose credentials are
// absent. An empty chain is valid; the dispatcher handles it explicitly.
func BuildChain(ctx context.Context, cfg config.ProvidersConfig, log *logger.Logger) ([]Provider, error) {
	var chain []Provider
	for _, name := range cfg.Priority {
		switch name {
		case "gmail":
			if cfg.Gmail.CredentialsJSON == "" {
				continue
			}
			p, err := NewGmailProvider(ctx, cfg.Gmail)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize gmail provider: %w", err)
			}
			chain = append(chain, p)
		case "mailgun":
			if cfg.Mailgun.APIKey == "" {
				continue
			}
			p, err := NewMailgunProvider(cfg.Mailgun)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize mailgun provider: %w", err)
			}
			chain = append(chain, p)
		case "postmark":
			if cfg.Postmark.ServerToken == "" {
				continue
			}
			p, err := NewPostmarkProvider(cfg.Postmark)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize postmark provider: %w", err)
			}
			chain = append(chain, p)
		default:
			return nil, fmt.Errorf("unknown provider %q in priority list", name)
		}
	}

	for _, p := range chain {
		log.Info().Str("provider", p.ID()).Msg("email provider enabled")
	}
	if len(chain) == 0 {
		log.Warn().Msg("no email providers configured; sends will be dropped")
	}
	return chain, nil
}
