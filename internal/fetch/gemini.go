package fetch

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiCompleter answers prompts with a single-turn Gemini request.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter wraps a genai client.
func NewGeminiCompleter(client *genai.Client, model string) *GeminiCompleter {
	return &GeminiCompleter{client: client, model: model}
}

// Complete sends the prompt and returns the response text.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}
