package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/yilmaz/voxa/internal/observability"
	"github.com/yilmaz/voxa/internal/tracing"
	"github.com/yilmaz/voxa/pkg/orchestrator"
)

const maxUploadBytes = 32 << 20

// handleChat handles POST /agent/chat/{session_id}. A successful turn
// returns the hosted audio URL; any turn failure or unavailable provider
// stack returns the fallback audio with X-Error set.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		observability.RecordHTTPRequest("/agent/chat", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		observability.RecordHTTPRequest("/agent/chat", http.StatusMethodNotAllowed)
		return
	}

	ip := s.getClientIP(r)

	if !s.rateLimiter.CheckLimit(ip) {
		retryAfter := s.rateLimiter.GetRetryAfter(ip)
		s.logger.Warn().
			Str("ip", ip).
			Int("retry_after", retryAfter).
			Msg("Rate limit exceeded")

		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		observability.RecordHTTPRequest("/agent/chat", http.StatusTooManyRequests)
		return
	}

	requestID, _ := gonanoid.New()
	ctx := tracing.WithRequestID(r.Context(), requestID)
	w.Header().Set("X-Request-ID", requestID)

	logger := s.logger.With().
		Str("request_id", requestID).
		Str("ip", ip).
		Logger()

	sessionID := strings.TrimPrefix(r.URL.Path, "/agent/chat/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		s.writeError(w, http.StatusBadRequest, "session id is required")
		observability.RecordHTTPRequest("/agent/chat", http.StatusBadRequest)
		return
	}

	logger = logger.With().Str("session_id", sessionID).Logger()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("audio_file")
	if err != nil {
		logger.Warn().Err(err).Msg("Missing audio_file field")
		s.writeError(w, http.StatusBadRequest, "audio_file field is required")
		observability.RecordHTTPRequest("/agent/chat", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read audio upload")
		s.writeError(w, http.StatusBadRequest, "failed to read audio upload")
		observability.RecordHTTPRequest("/agent/chat", http.StatusBadRequest)
		return
	}

	logger.Info().
		Str("filename", header.Filename).
		Int("audio_bytes", len(audio)).
		Msg("Chat request received")

	if s.runner == nil {
		logger.Warn().Msg("Assistant services unavailable, serving fallback")
		s.serveFallback(w, logger, orchestrator.ErrUnavailable)
		return
	}

	result, err := s.runner.RunTurn(ctx, sessionID, audio)
	if err != nil {
		var terr *orchestrator.TurnError
		if errors.As(err, &terr) {
			logger.Error().Err(terr.Err).Str("stage", string(terr.Stage)).Msg("Turn failed, serving fallback")
		} else {
			logger.Error().Err(err).Msg("Turn failed, serving fallback")
		}
		s.serveFallback(w, logger, err)
		return
	}

	logger.Info().
		Str("audio_url", result.AudioURL).
		Dur("duration", time.Since(start)).
		Msg("Chat request completed")

	s.writeJSON(w, http.StatusOK, ChatResponse{
		AudioURL: result.AudioURL,
		Success:  true,
	})
	observability.RecordHTTPRequest("/agent/chat", http.StatusOK)
}

// serveFallback writes the fallback audio asset with the error marker
// header so the frontend can still play a spoken apology.
func (s *Server) serveFallback(w http.ResponseWriter, logger zerolog.Logger, cause error) {
	audio, err := os.ReadFile(s.options.FallbackAudioPath)
	if err != nil {
		logger.Error().
			Err(err).
			Str("path", s.options.FallbackAudioPath).
			Msg("Fallback audio unavailable")
		w.Header().Set("X-Error", "true")
		s.writeError(w, http.StatusInternalServerError, "assistant unavailable")
		observability.RecordHTTPRequest("/agent/chat", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("X-Error", "true")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		logger.Warn().Err(err).Msg("Failed to write fallback audio")
	}
	observability.RecordHTTPRequest("/agent/chat", http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	subsystems := s.health()

	status := "healthy"
	if !subsystems.Healthy() {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:         status,
		Subsystems:     subsystems,
		ActiveSessions: s.sessions.Count(),
		Uptime:         time.Since(s.startTime).Seconds(),
		Timestamp:      time.Now().UnixMilli(),
	}

	s.writeJSON(w, http.StatusOK, response)
	observability.RecordHTTPRequest("/health", http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message, Success: false})
}
