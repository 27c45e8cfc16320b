package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coopco/autopost/internal/profile"
)

// ErrEmptyDraft is returned when a backend replies without a usable line.
var ErrEmptyDraft = errors.New("provider returned no usable lines")

// Provider drafts text messages for a scheduled profile.
type Provider interface {
	Draft(ctx context.Context, req DraftRequest) (*Draft, error)
}

// DraftRequest asks for Count message lines about Topic.
type DraftRequest struct {
	Model string
	Topic string
	Count int
}

// Draft holds the cleaned message lines of one backend reply.
type Draft struct {
	Lines      []string
	StopReason string
	Usage      Usage
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

const (
	draftSystemPrompt = `You write short messages for a Discord bot that posts on a schedule.
Reply with one message per line and nothing else: no numbering, no quotes, no commentary.
Each message must be under 200 characters. You may use the placeholder {now} for the current time.`

	draftTemperature = 0.9
	defaultMaxTokens = 1024

	// Discord rejects text messages longer than this.
	maxLineLength = 2000
)

func draftPrompt(req DraftRequest) string {
	return fmt.Sprintf("Write %d different messages about: %s", req.Count, req.Topic)
}

// parseDraft splits a reply into at most n message lines, dropping list
// markers and lines Discord would refuse.
func parseDraft(content string, n int) ([]string, error) {
	var lines []string
	for _, line := range profile.SplitImport(content) {
		line = strings.Trim(strings.TrimLeft(line, "-*•0123456789.) "), `"`)
		if line == "" || len([]rune(line)) > maxLineLength {
			continue
		}
		lines = append(lines, line)
		if n > 0 && len(lines) == n {
			break
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyDraft
	}
	return lines, nil
}
