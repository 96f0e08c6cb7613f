package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("PORT", "")

	cfg := Load()
	require.Equal(t, ProviderOpenAI, cfg.Provider)
	require.Equal(t, "gpt-4o-mini", cfg.Model)
	require.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "./prompts/funnel.yaml", cfg.PromptsFile)
}

func TestLoadGoogleProviderDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "google")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("EMBEDDING_MODEL", "")

	cfg := Load()
	require.Equal(t, ProviderGoogle, cfg.Provider)
	require.Equal(t, "gemini-2.5-flash", cfg.Model)
	require.Equal(t, "gemini-embedding-001", cfg.EmbeddingModel)
}

func TestLoadModelOverride(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("LLM_MODEL", "anthropic/claude-sonnet")

	cfg := Load()
	require.Equal(t, ProviderOpenRouter, cfg.Provider)
	require.Equal(t, "anthropic/claude-sonnet", cfg.Model)
}
