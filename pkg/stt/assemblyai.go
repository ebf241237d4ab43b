package stt

import (
	"bytes"
	"context"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/rs/zerolog"
)

// AssemblyAIClient implements Transcriber using the AssemblyAI API.
type AssemblyAIClient struct {
	client *aai.Client
	logger zerolog.Logger
}

// NewAssemblyAI creates an AssemblyAI-backed transcriber.
func NewAssemblyAI(apiKey string, logger zerolog.Logger) *AssemblyAIClient {
	return &AssemblyAIClient{
		client: aai.NewClient(apiKey),
		logger: logger.With().Str("component", "stt-assemblyai").Logger(),
	}
}

// Provider returns the provider name
func (c *AssemblyAIClient) Provider() string {
	return "assemblyai"
}

// Transcribe uploads the audio, waits for the transcript and returns its
// text. Provider-reported error status and empty transcripts both fail.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	c.logger.Debug().Int("bytes", len(audio)).Msg("Starting transcription")

	transcript, err := c.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(audio), nil)
	if err != nil {
		return nil, fmt.Errorf("assemblyai transcription failed: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("assemblyai transcription failed: %s", msg)
	}

	if transcript.Text == nil || *transcript.Text == "" {
		return nil, ErrNoSpeech
	}

	result := &Result{Text: *transcript.Text}
	if transcript.Confidence != nil {
		conf := *transcript.Confidence
		result.Confidence = &conf
	}

	c.logger.Debug().
		Str("preview", preview(result.Text)).
		Msg("Transcription completed")

	return result, nil
}

// preview truncates text for log output.
func preview(text string) string {
	const max = 100
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
