package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"document-chat-assistant/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter implements the completion port with the official SDK. One
// generateContent call per invocation; no retry, no internal timeout.
type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	maxOut       int
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string, maxOut int) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, maxOut: maxOut}, nil
}

func (g *GeminiAdapter) Complete(ctx context.Context, model string, turns []adapter.Turn) (string, error) {
	reply, _, err := g.complete(ctx, model, turns)
	return reply, err
}

func (g *GeminiAdapter) CompleteWithUsage(ctx context.Context, model string, turns []adapter.Turn) (string, adapter.Usage, error) {
	return g.complete(ctx, model, turns)
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model string, turns []adapter.Turn) (int, error) {
	resp, err := g.client.Models.CountTokens(ctx, modelOrDefault(model, g.defaultModel), toGenAIContents(turns), nil)
	if err != nil {
		return 0, &adapter.TransportError{Err: err}
	}
	return int(resp.TotalTokens), nil
}

// --- internal ---

func (g *GeminiAdapter) complete(ctx context.Context, model string, turns []adapter.Turn) (string, adapter.Usage, error) {
	if len(turns) == 0 {
		return "", adapter.Usage{}, errors.New("gemini: no turns")
	}

	resp, err := g.client.Models.GenerateContent(
		ctx,
		modelOrDefault(model, g.defaultModel),
		toGenAIContents(turns),
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(g.maxOut),
		},
	)
	if err != nil {
		return "", adapter.Usage{}, &adapter.TransportError{Err: err}
	}

	// A delivered response without a readable text part degrades to the
	// fixed fallback; only transport-level trouble is an error.
	text := adapter.FallbackReply
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if t := resp.Candidates[0].Content.Parts[0].Text; t != "" {
			text = t
		}
	}
	u := adapter.Usage{}
	if resp != nil && resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return text, u, nil
}

func toGenAIContents(turns []adapter.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.RoleUser
		if strings.ToLower(t.Role) == adapter.RoleModel {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Text}},
		})
	}
	return out
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
