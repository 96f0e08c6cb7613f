package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements TextGenerator and Embedder against the Gemini API.
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	temperature    float32
}

func NewGemini(ctx context.Context, apiKey, model, embeddingModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    0.3,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](c.temperature)},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text != "" {
		return text, nil
	}
	// The model can answer with structured (non-text) parts; serialize them
	// rather than dropping the reply.
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		raw, merr := json.Marshal(resp.Candidates[0].Content.Parts)
		if merr == nil && len(raw) > 0 {
			return string(raw), nil
		}
	}
	return "", fmt.Errorf("gemini returned no content")
}

func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	result, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents,
		&genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("gemini returned no embeddings")
	}
	return result.Embeddings[0].Values, nil
}
