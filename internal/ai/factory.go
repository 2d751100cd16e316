package ai

import (
	"context"
	"fmt"

	"fintrack/internal/config"
)

// NewCompleter builds the completion service selected by AI_PROVIDER. It
// returns nil without error for "none"; components then use their
// fallbacks.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	var c Completer
	switch cfg.AIProvider {
	case config.AIProviderGroq:
		c = NewOpenAICompleter(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel)
	case config.AIProviderGemini:
		g, err := NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		c = g
	case config.AIProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
	return WithTimeout(c, cfg.AITimeout), nil
}
