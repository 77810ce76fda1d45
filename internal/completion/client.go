package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/Iron-Ham/taskwatch/internal/config"
)

// Client produces a completion for a single prompt.
type Client interface {
	// Complete returns the model's text response to prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Backend names accepted by NewFromConfig.
const (
	BackendNone      = "none"
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
)

// NewFromConfig builds the client selected by cfg.Backend. It returns a nil
// Client and no error for the "none" backend.
func NewFromConfig(cfg config.CompletionConfig) (Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendAnthropic:
		opts := []AnthropicOption{}
		if cfg.Model != "" {
			opts = append(opts, WithAnthropicModel(cfg.Model))
		}
		if timeout > 0 {
			opts = append(opts, WithAnthropicTimeout(timeout))
		}
		c, err := NewAnthropicClient(opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendOpenAI:
		opts := []OpenAIOption{}
		if cfg.Model != "" {
			opts = append(opts, WithOpenAIModel(cfg.Model))
		}
		c, err := NewOpenAIClient(opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown completion backend %q", cfg.Backend)
	}
}
