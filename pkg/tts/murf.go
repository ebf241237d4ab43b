// Package tts wraps the Murf speech-generation API. It converts reply
// text into a hosted audio asset and returns the asset URL.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the Murf speech-generation endpoint.
	DefaultBaseURL = "https://api.murf.ai/v1/speech/generate"

	// DefaultVoice is the synthesis persona used when none is requested.
	DefaultVoice = "en-US-natalie"

	defaultTimeout = 30 * time.Second
)

// ErrNoAudioURL is returned when the provider response lacks an audio
// file location.
var ErrNoAudioURL = errors.New("no audio URL in synthesis response")

// Result holds one synthesis outcome.
type Result struct {
	AudioURL string
}

// Client is the Murf synthesis client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Options configures the synthesis client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

type generateRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
	Format  string `json:"format"`
	Volume  string `json:"volume"`
}

type generateResponse struct {
	AudioFile string `json:"audioFile"`
}

// NewClient creates a Murf synthesis client.
func NewClient(apiKey string, opts Options, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("murf API key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger.With().Str("component", "tts-murf").Logger(),
	}, nil
}

// Provider returns the provider name
func (c *Client) Provider() string {
	return "murf"
}

// Synthesize converts text into hosted MP3 audio at full volume and
// returns the asset URL. An empty voice selects the default persona.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (*Result, error) {
	if voice == "" {
		voice = DefaultVoice
	}

	payload, err := json.Marshal(generateRequest{
		Text:    text,
		VoiceID: voice,
		Format:  "MP3",
		Volume:  "100%",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("synthesis failed with status %d: %s", resp.StatusCode, body)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse synthesis response: %w", err)
	}

	if parsed.AudioFile == "" {
		return nil, ErrNoAudioURL
	}

	c.logger.Debug().
		Str("voice", voice).
		Msg("Synthesis completed")

	return &Result{AudioURL: parsed.AudioFile}, nil
}
