package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

type AnthropicProvider struct {
	client       *anthropic.Client
	defaultModel string
}

// NewAnthropicProvider creates a provider. baseURL may be empty.
func NewAnthropicProvider(apiKey, baseURL, defaultModel string) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if defaultModel == "" {
		defaultModel = defaultAnthropicModel
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, defaultModel: defaultModel}
}

func (p *AnthropicProvider) Draft(ctx context.Context, req DraftRequest) (*Draft, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   defaultMaxTokens,
		System:      []anthropic.TextBlockParam{{Text: draftSystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(draftPrompt(req)))},
		Temperature: anthropic.Float(draftTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic draft failed: %w", err)
	}

	lines, err := parseDraft(replyText(resp), req.Count)
	if err != nil {
		return nil, err
	}
	return &Draft{
		Lines:      lines,
		StopReason: string(resp.StopReason),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// replyText joins the text blocks of a reply, one block per line.
func replyText(resp *anthropic.Message) string {
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}
