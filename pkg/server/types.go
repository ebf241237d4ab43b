package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yilmaz/voxa/pkg/orchestrator"
)

// ServerOptions configures the HTTP server
type ServerOptions struct {
	Host               string // bind host (default: 0.0.0.0)
	Port               int    // bind port (default: 8000)
	StaticDir          string // frontend directory served at /, optional
	FallbackAudioPath  string // audio asset returned on failed turns
	RateLimitPerMinute int    // per-IP request limit (default: 120)
}

// TurnRunner executes one conversational turn. The orchestrator satisfies
// this; handler tests substitute fakes.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID string, audio []byte) (*orchestrator.TurnResult, error)
}

// SubsystemHealth reports per-subsystem readiness
type SubsystemHealth struct {
	STT          bool `json:"stt"`
	LLM          bool `json:"llm"`
	TTS          bool `json:"tts"`
	SessionStore bool `json:"session_store"`
}

// Healthy reports whether every subsystem is ready
func (h SubsystemHealth) Healthy() bool {
	return h.STT && h.LLM && h.TTS && h.SessionStore
}

// HealthResponse is the /health payload
type HealthResponse struct {
	Status         string          `json:"status"`
	Subsystems     SubsystemHealth `json:"subsystems"`
	ActiveSessions int             `json:"active_sessions"`
	Uptime         float64         `json:"uptime"`
	Timestamp      int64           `json:"timestamp"`
}

// ChatResponse is the successful turn payload
type ChatResponse struct {
	AudioURL string `json:"audio_url"`
	Success  bool   `json:"success"`
}

// ErrorResponse is the JSON error payload for malformed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// EventMessage represents a server-initiated event on the event stream
type EventMessage struct {
	Type      string                 `json:"type"`
	Event     string                 `json:"event"`
	Seq       int64                  `json:"seq"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// Client represents a connected event-stream client
type Client struct {
	ID           string
	Conn         *websocket.Conn
	ConnectedAt  time.Time
	LastActivity time.Time
	IPAddress    string

	writeMu sync.Mutex
}

// WriteJSON sends a JSON message to the client. Safe for concurrent use.
func (c *Client) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}
