package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coopco/autopost/internal/providers"
)

// Generator proposes text messages for a topic.
type Generator struct {
	provider providers.Provider
	model    string
}

// New returns a generator. A nil provider makes Suggest return the fallback lines.
func New(provider providers.Provider, model string) *Generator {
	return &Generator{provider: provider, model: model}
}

// Suggest returns up to n non-empty message lines about topic.
func (g *Generator) Suggest(ctx context.Context, topic string, n int) ([]string, error) {
	if n <= 0 {
		n = 5
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic must not be empty")
	}
	if g.provider == nil {
		return fallback(topic, n), nil
	}

	draft, err := g.provider.Draft(ctx, providers.DraftRequest{Model: g.model, Topic: topic, Count: n})
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	slog.Debug("suggest: generated messages", "topic", topic, "count", len(draft.Lines), "tokens", draft.Usage.TotalTokens)
	return draft.Lines, nil
}

func fallback(topic string, n int) []string {
	templates := []string{
		"Reminder: %s",
		"Don't forget: %s",
		"%s (posted {now})",
		"Heads up! %s",
		"Quick note about %s",
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf(templates[i%len(templates)], topic))
	}
	return out
}
