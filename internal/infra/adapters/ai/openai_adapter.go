package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"document-chat-assistant/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements the completion port against the Chat Completions
// API. The "model" wire role maps to the assistant role here.
type OpenAIAdapter struct {
	client       openai.Client
	defaultModel string
	maxOut       int
}

func NewOpenAIAdapter(apiKey, baseURL, defaultModel string, maxOut int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIAdapter{
		client:       openai.NewClient(opts...),
		defaultModel: defaultModel,
		maxOut:       maxOut,
	}, nil
}

func (o *OpenAIAdapter) Complete(ctx context.Context, model string, turns []adapter.Turn) (string, error) {
	reply, _, err := o.complete(ctx, model, turns)
	return reply, err
}

func (o *OpenAIAdapter) CompleteWithUsage(ctx context.Context, model string, turns []adapter.Turn) (string, adapter.Usage, error) {
	return o.complete(ctx, model, turns)
}

// CountTokens counts locally with tiktoken; OpenAI has no counting endpoint.
func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, turns []adapter.Turn) (int, error) {
	enc, err := tiktoken.EncodingForModel(modelOrDefault(model, o.defaultModel))
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
	}
	total := 0
	for _, t := range turns {
		total += len(enc.Encode(t.Text, nil, nil))
	}
	return total, nil
}

func (o *OpenAIAdapter) complete(ctx context.Context, model string, turns []adapter.Turn) (string, adapter.Usage, error) {
	if len(turns) == 0 {
		return "", adapter.Usage{}, errors.New("openai: no turns")
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		if t.Role == adapter.RoleModel {
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelOrDefault(model, o.defaultModel)),
		Messages: msgs,
	}
	if o.maxOut > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.maxOut))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", adapter.Usage{}, &adapter.TransportError{Err: err}
	}

	text := adapter.FallbackReply
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		text = resp.Choices[0].Message.Content
	}
	u := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return text, u, nil
}
