// Package reply wraps remote conversational LLM providers behind a single
// Generator interface. Each provider maintains the conversation history in
// its own turn format; callers thread the returned history back in on the
// next turn without interpreting it.
package reply

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yilmaz/voxa/pkg/session"
)

// Reply contains the generated reply text.
type Reply struct {
	Text string
}

// Generator produces a reply for new user text given the prior history.
// A failed call returns no history update.
type Generator interface {
	// Generate returns the reply and the full updated history, inclusive
	// of the new user turn and the new reply turn.
	Generate(ctx context.Context, userText string, history []session.Message) (*Reply, []session.Message, error)

	// Provider returns the provider name
	Provider() string
}

// Config selects and configures the generation provider.
type Config struct {
	Provider     string // "gemini" (default), "openai" or "anthropic"
	APIKey       string
	Model        string
	SystemPrompt string
	MaxTokens    int
}

// New creates a generator for the configured provider.
func New(cfg Config, logger zerolog.Logger) (Generator, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", provider)
	}

	switch provider {
	case "gemini":
		return NewGemini(cfg, logger)
	case "openai":
		return NewOpenAI(cfg, logger), nil
	case "anthropic":
		return NewAnthropic(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", provider)
	}
}
