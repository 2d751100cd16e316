// Package ai wraps a text-completion service for transaction
// categorization, natural-language parsing, insights and budget
// recommendations. Every component degrades to a deterministic default when
// the service is missing or fails.
package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// CompletionRequest asks for a single JSON object answer.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Completer returns the raw text of one completion.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

var (
	ErrNoCompleter     = errors.New("no completion service configured")
	ErrEmptyCompletion = errors.New("empty completion")
)

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout bounds every completion call made through c.
func WithTimeout(c Completer, d time.Duration) Completer {
	if c == nil || d <= 0 {
		return c
	}
	return &timeoutCompleter{next: c, timeout: d}
}

func (t *timeoutCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	out, err := t.next.Complete(ctx, req)
	slog.DebugContext(ctx, "Completion finished",
		"duration_ms", time.Since(start).Milliseconds(),
		"max_tokens", req.MaxTokens,
		"success", err == nil)
	return out, err
}

func complete(ctx context.Context, c Completer, system, prompt string, temperature float32, maxTokens int) (string, error) {
	if c == nil {
		return "", ErrNoCompleter
	}
	out, err := c.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}
