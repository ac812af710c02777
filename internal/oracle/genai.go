package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAI implements Client on top of Google's Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a Gemini-backed oracle. Returns (nil, ErrUnavailable)
// when apiKey is empty so callers can branch without string checks.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Available() bool { return g != nil && g.client != nil }

// Complete sends a plain-text prompt.
func (g *GenAI) Complete(ctx context.Context, system, user string) (string, error) {
	return g.generate(ctx, system, user, "")
}

// CompleteJSON sends a prompt with the response MIME type pinned to
// JSON so the model skips prose framing.
func (g *GenAI) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	return g.generate(ctx, system, user, "application/json")
}

func (g *GenAI) generate(ctx context.Context, system, user, mimeType string) (string, error) {
	if !g.Available() {
		return "", ErrUnavailable
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if mimeType != "" {
		cfg.ResponseMIMEType = mimeType
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("genai completion: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned empty response")
	}
	return text, nil
}
