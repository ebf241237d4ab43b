package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yilmaz/voxa/pkg/orchestrator"
	"github.com/yilmaz/voxa/pkg/session"
)

type fakeRunner struct {
	result *orchestrator.TurnResult
	err    error
	calls  int
	lastID string
}

func (f *fakeRunner) RunTurn(_ context.Context, sessionID string, _ []byte) (*orchestrator.TurnResult, error) {
	f.calls++
	f.lastID = sessionID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func healthyReporter() SubsystemHealth {
	return SubsystemHealth{STT: true, LLM: true, TTS: true, SessionStore: true}
}

func newTestServer(t *testing.T, runner TurnRunner, health func() SubsystemHealth) *Server {
	t.Helper()

	fallback := filepath.Join(t.TempDir(), "fallback.mp3")
	require.NoError(t, os.WriteFile(fallback, []byte("fallback-audio"), 0644))

	if health == nil {
		health = healthyReporter
	}

	s, err := NewServer(ServerOptions{
		FallbackAudioPath:  fallback,
		RateLimitPerMinute: 1000,
	}, Dependencies{
		Runner:   runner,
		Sessions: session.NewStore(zerolog.Nop()),
		Health:   health,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.rateLimiter.Stop() })

	return s
}

func chatRequest(t *testing.T, sessionID string, audio []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio_file", "input.webm")
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/agent/chat/"+sessionID, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleChatSuccess(t *testing.T) {
	runner := &fakeRunner{result: &orchestrator.TurnResult{
		TurnID:   "t1",
		AudioURL: "https://cdn.example.com/reply.mp3",
	}}
	s := newTestServer(t, runner, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, chatRequest(t, "sess-1", []byte("audio-bytes")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("X-Error"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://cdn.example.com/reply.mp3", resp.AudioURL)

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, "sess-1", runner.lastID)
}

func TestHandleChatTurnFailure(t *testing.T) {
	runner := &fakeRunner{err: &orchestrator.TurnError{
		Stage: orchestrator.StageSynthesis,
		Err:   errors.New("provider down"),
	}}
	s := newTestServer(t, runner, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, chatRequest(t, "sess-1", []byte("audio")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Error"))
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "fallback-audio", string(body))
}

func TestHandleChatUnavailable(t *testing.T) {
	s := newTestServer(t, nil, func() SubsystemHealth {
		return SubsystemHealth{SessionStore: true}
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, chatRequest(t, "sess-1", []byte("audio")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Error"))
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
}

func TestHandleChatMissingFallbackAsset(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	s := newTestServer(t, runner, nil)
	s.options.FallbackAudioPath = filepath.Join(t.TempDir(), "missing.mp3")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, chatRequest(t, "sess-1", []byte("audio")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Error"))
}

func TestHandleChatMissingAudioField(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/agent/chat/sess-1", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "audio_file")
}

func TestHandleChatMissingSessionID(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, chatRequest(t, "", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/agent/chat/sess-1", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleChatRateLimited(t *testing.T) {
	runner := &fakeRunner{result: &orchestrator.TurnResult{AudioURL: "u"}}
	s := newTestServer(t, runner, nil)
	s.rateLimiter.Stop()
	s.rateLimiter = NewRateLimiter(1)
	t.Cleanup(s.rateLimiter.Stop)

	handler := s.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, chatRequest(t, "sess-1", []byte("a")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, chatRequest(t, "sess-1", []byte("a")))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestHandleChatShuttingDown(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, nil)
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, chatRequest(t, "sess-1", []byte("a")))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, &fakeRunner{}, nil)
		s.sessions.GetOrCreate("a")
		s.sessions.GetOrCreate("b")

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.True(t, resp.Subsystems.STT)
		assert.True(t, resp.Subsystems.LLM)
		assert.True(t, resp.Subsystems.TTS)
		assert.True(t, resp.Subsystems.SessionStore)
		assert.Equal(t, 2, resp.ActiveSessions)
	})

	t.Run("unhealthy when credentials missing", func(t *testing.T) {
		s := newTestServer(t, nil, func() SubsystemHealth {
			return SubsystemHealth{STT: true, SessionStore: true}
		})

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.False(t, resp.Subsystems.LLM)
		assert.False(t, resp.Subsystems.TTS)
	})

	t.Run("raw payload keys", func(t *testing.T) {
		s := newTestServer(t, &fakeRunner{}, nil)

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		assert.Contains(t, raw, "active_sessions")

		subsystems, ok := raw["subsystems"].(map[string]interface{})
		require.True(t, ok)
		for _, key := range []string{"stt", "llm", "tts", "session_store"} {
			assert.Contains(t, subsystems, key)
		}
	})
}

func TestStaticPassthrough(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>voxa</html>"), 0644))

	s := newTestServer(t, &fakeRunner{}, nil)
	s.options.StaticDir = dir

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voxa")
}
