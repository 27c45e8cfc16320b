package providers

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompatProvider drafts messages through OpenAI or any
// OpenAI-compatible API.
type OpenAICompatProvider struct {
	client       *openai.Client
	defaultModel string
	modelPrefix  string
	skipPrefixes []string
}

// NewOpenAICompatProvider creates a provider with an explicit base URL.
func NewOpenAICompatProvider(apiKey, baseURL, defaultModel string) *OpenAICompatProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompatProvider{
		client:       openai.NewClientWithConfig(cfg),
		defaultModel: defaultModel,
	}
}

// NewOpenAICompatProviderFromSpec fills base URL and model from the registry entry.
func NewOpenAICompatProviderFromSpec(spec *ProviderSpec, apiKey, baseURL, defaultModel string) *OpenAICompatProvider {
	if baseURL == "" {
		baseURL = spec.DefaultAPIBase
	}
	if defaultModel == "" {
		defaultModel = spec.DefaultModel
	}
	p := NewOpenAICompatProvider(apiKey, baseURL, defaultModel)
	p.modelPrefix = spec.ModelPrefix
	p.skipPrefixes = spec.SkipPrefixes
	return p
}

func (p *OpenAICompatProvider) resolveModel(model string) string {
	if model == "" {
		model = p.defaultModel
	}
	if p.modelPrefix == "" {
		return model
	}
	for _, skip := range p.skipPrefixes {
		if strings.HasPrefix(model, skip) {
			return model
		}
	}
	return p.modelPrefix + model
}

// Draft asks the chat completions endpoint for req.Count message lines.
func (p *OpenAICompatProvider) Draft(ctx context.Context, req DraftRequest) (*Draft, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.resolveModel(req.Model),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: draftSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: draftPrompt(req)},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: draftTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response: %w", ErrEmptyDraft)
	}

	choice := resp.Choices[0]
	lines, err := parseDraft(choice.Message.Content, req.Count)
	if err != nil {
		return nil, err
	}
	return &Draft{
		Lines:      lines,
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
