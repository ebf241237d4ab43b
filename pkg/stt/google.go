package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog"
)

// GoogleClient implements Transcriber using Google Cloud Speech-to-Text.
// It relies on Application Default Credentials for authentication.
type GoogleClient struct {
	client       *speech.Client
	languageCode string
	logger       zerolog.Logger
}

// NewGoogle creates a Google Cloud Speech-backed transcriber.
func NewGoogle(languageCode string, logger zerolog.Logger) (*GoogleClient, error) {
	if languageCode == "" {
		languageCode = "en-US"
	}

	client, err := speech.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &GoogleClient{
		client:       client,
		languageCode: languageCode,
		logger:       logger.With().Str("component", "stt-google").Logger(),
	}, nil
}

// Provider returns the provider name
func (c *GoogleClient) Provider() string {
	return "google"
}

// Close releases the underlying gRPC connection.
func (c *GoogleClient) Close() error {
	return c.client.Close()
}

// Transcribe runs a synchronous recognition request over the full audio
// payload and joins the result alternatives into one transcript.
func (c *GoogleClient) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	c.logger.Debug().Int("bytes", len(audio)).Msg("Starting transcription")

	resp, err := c.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			// Encoding left unspecified so the service reads it from the
			// container header (WAV/FLAC uploads).
			LanguageCode: c.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google transcription failed: %w", err)
	}

	var (
		parts      []string
		confidence *float64
	)
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		alt := result.Alternatives[0]
		parts = append(parts, alt.Transcript)
		if confidence == nil {
			conf := float64(alt.Confidence)
			confidence = &conf
		}
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return nil, ErrNoSpeech
	}

	c.logger.Debug().
		Str("preview", preview(text)).
		Msg("Transcription completed")

	return &Result{Text: text, Confidence: confidence}, nil
}
