package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names the language-model backend used for both text generation
// and embeddings. Selected once at startup via LLM_PROVIDER.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderGoogle     Provider = "google"
	ProviderOpenRouter Provider = "openrouter"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Database
	DatabaseURL   string
	MigrationsDir string
	// LLM backend
	Provider         Provider
	OpenAIAPIKey     string
	GoogleAPIKey     string
	OpenRouterAPIKey string
	Model            string
	EmbeddingModel   string
	// Funnel prompt templates
	PromptsFile string
}

func Load() Config {
	_ = godotenv.Load()
	provider := Provider(strings.ToLower(getEnvDefault("LLM_PROVIDER", string(ProviderOpenAI))))
	return Config{
		Port:             getEnvDefault("PORT", "8080"),
		AllowedOrigin:    getEnvDefault("ALLOWED_ORIGIN", "*"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MigrationsDir:    getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		Provider:         provider,
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		Model:            getEnvDefault("LLM_MODEL", defaultModel(provider)),
		EmbeddingModel:   getEnvDefault("EMBEDDING_MODEL", defaultEmbeddingModel(provider)),
		PromptsFile:      getEnvDefault("PROMPTS_FILE", "./prompts/funnel.yaml"),
	}
}

func defaultModel(p Provider) string {
	switch p {
	case ProviderGoogle:
		return "gemini-2.5-flash"
	case ProviderOpenRouter:
		return "openrouter/free"
	default:
		return "gpt-4o-mini"
	}
}

func defaultEmbeddingModel(p Provider) string {
	switch p {
	case ProviderGoogle:
		return "gemini-embedding-001"
	case ProviderOpenRouter:
		return "openai/text-embedding-3-small"
	default:
		return "text-embedding-3-small"
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
