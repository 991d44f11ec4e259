package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/govguard/govguard/internal/ports"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiAdapter implements ports.TextGenerator using Google's Gemini API
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a Gemini-backed text generator
func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiAdapter{client: client, model: model}, nil
}

// GenerateText sends the prompt as a single user turn and returns the concatenated text parts
func (g *GeminiAdapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text for model %s", g.model)
	}
	return text, nil
}

// Provider returns the provider name
func (g *GeminiAdapter) Provider() string {
	return "gemini"
}

// Model returns the configured model name
func (g *GeminiAdapter) Model() string {
	return g.model
}

var _ ports.TextGenerator = (*GeminiAdapter)(nil)
