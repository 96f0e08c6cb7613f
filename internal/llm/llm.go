// Package llm provides the language-model gateway used by the funnel:
// text generation for extraction/response prompts and embeddings for the
// semantic matcher. One backend is selected at startup via configuration.
package llm

import (
	"context"
	"fmt"

	"github.com/coelhoxyz/lead-qualifier-agent/internal/config"
)

// TextGenerator produces a completion for a single prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns a text into its vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New builds the generator and embedder for the configured provider.
func New(ctx context.Context, cfg config.Config) (TextGenerator, Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY is required for provider %q", cfg.Provider)
		}
		c := NewOpenAI(cfg.OpenAIAPIKey, cfg.Model, cfg.EmbeddingModel)
		return c, c, nil
	case config.ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return nil, nil, fmt.Errorf("OPENROUTER_API_KEY is required for provider %q", cfg.Provider)
		}
		c := NewOpenRouter(cfg.OpenRouterAPIKey, cfg.Model, cfg.EmbeddingModel)
		return c, c, nil
	case config.ProviderGoogle:
		if cfg.GoogleAPIKey == "" {
			return nil, nil, fmt.Errorf("GOOGLE_API_KEY is required for provider %q", cfg.Provider)
		}
		c, err := NewGemini(ctx, cfg.GoogleAPIKey, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
