package provider

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/image-caption/internal/config"
	"github.com/bryanwahyu/image-caption/internal/domain/ai"
	"github.com/bryanwahyu/image-caption/internal/infra/ai/gemini"
	"github.com/bryanwahyu/image-caption/internal/infra/ai/openai"
)

// New builds the vision client selected by cfg.AI.Provider. The returned
// close func releases provider resources and is never nil.
func New(ctx context.Context, cfg *config.Config) (ai.VisionClient, func() error, error) {
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		c := openai.NewClient(openai.Options{
			APIKey:      cfg.AI.OpenAI.APIKey,
			Model:       cfg.AI.OpenAI.Model,
			BaseURL:     cfg.AI.OpenAI.BaseURL,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
		})
		return c, func() error { return nil }, nil
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:      cfg.AI.Gemini.APIKey,
			Model:       cfg.AI.Gemini.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
}

// Secrets lists the credentials that must never appear in client output.
func Secrets(cfg *config.Config) []string {
	var out []string
	for _, s := range []string{cfg.AI.OpenAI.APIKey, cfg.AI.Gemini.APIKey} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
