// Package stt wraps remote speech-to-text providers behind a single
// Transcriber interface.
package stt

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNoSpeech is returned when the provider completes without producing
// any transcript text. An empty transcript is a failure, not a valid
// empty result.
var ErrNoSpeech = errors.New("no speech detected")

// Result holds one transcription outcome. Confidence is provider-optional;
// nil means the provider did not report one.
type Result struct {
	Text       string
	Confidence *float64
}

// Transcriber converts an audio byte stream into text. One outbound
// network call per invocation; there is no local retry.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (*Result, error)

	// Provider returns the provider name
	Provider() string
}

// Config selects and configures the transcription provider.
type Config struct {
	Provider     string // "assemblyai" (default) or "google"
	APIKey       string
	LanguageCode string
}

// New creates a transcriber for the configured provider.
func New(cfg Config, logger zerolog.Logger) (Transcriber, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "assemblyai"
	}

	switch provider {
	case "assemblyai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("assemblyai API key is required")
		}
		return NewAssemblyAI(cfg.APIKey, logger), nil
	case "google":
		return NewGoogle(cfg.LanguageCode, logger)
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", provider)
	}
}
