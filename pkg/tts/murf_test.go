package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("murf-test-key", Options{BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	_, err := NewClient("", Options{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSynthesize_Success(t *testing.T) {
	var gotReq generateRequest
	var gotKey string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]string{"audioFile": "https://audio/1.mp3"})
	})

	result, err := c.Synthesize(context.Background(), "hi there", "")
	require.NoError(t, err)

	assert.Equal(t, "https://audio/1.mp3", result.AudioURL)
	assert.Equal(t, "murf-test-key", gotKey)
	assert.Equal(t, "hi there", gotReq.Text)
	assert.Equal(t, DefaultVoice, gotReq.VoiceID)
	assert.Equal(t, "MP3", gotReq.Format)
	assert.Equal(t, "100%", gotReq.Volume)
}

func TestSynthesize_CustomVoice(t *testing.T) {
	var gotReq generateRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]string{"audioFile": "https://audio/2.mp3"})
	})

	_, err := c.Synthesize(context.Background(), "hello", "en-GB-oliver")
	require.NoError(t, err)

	assert.Equal(t, "en-GB-oliver", gotReq.VoiceID)
}

func TestSynthesize_MissingAudioURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "done"})
	})

	_, err := c.Synthesize(context.Background(), "hello", "")
	assert.ErrorIs(t, err, ErrNoAudioURL)
}

func TestSynthesize_ProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := c.Synthesize(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSynthesize_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := c.Synthesize(context.Background(), "hello", "")
	assert.Error(t, err)
}
