// Package server exposes the assistant over HTTP: the chat turn endpoint,
// health and metrics, a websocket turn-event stream, and the optional
// static frontend.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/yilmaz/voxa/internal/observability"
	"github.com/yilmaz/voxa/pkg/session"
)

// Dependencies holds the collaborators the server serves
type Dependencies struct {
	Runner   TurnRunner // nil when provider clients failed to initialize
	Sessions *session.Store
	Health   func() SubsystemHealth
	Logger   zerolog.Logger
}

// Server is the assistant HTTP server
type Server struct {
	options        ServerOptions
	server         *http.Server
	runner         TurnRunner
	sessions       *session.Store
	health         func() SubsystemHealth
	rateLimiter    *RateLimiter
	clients        *ClientRegistry
	broadcaster    *EventBroadcaster
	upgrader       websocket.Upgrader
	logger         zerolog.Logger
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates a new assistant server
func NewServer(options ServerOptions, deps Dependencies) (*Server, error) {
	if options.Port == 0 {
		options.Port = 8000
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.RateLimitPerMinute == 0 {
		options.RateLimitPerMinute = 120
	}

	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Health == nil {
		return nil, fmt.Errorf("health reporter is required")
	}

	clients := NewClientRegistry()

	s := &Server{
		options:     options,
		runner:      deps.Runner,
		sessions:    deps.Sessions,
		health:      deps.Health,
		rateLimiter: NewRateLimiter(options.RateLimitPerMinute),
		clients:     clients,
		broadcaster: NewEventBroadcaster(clients, deps.Logger),
		logger:      deps.Logger.With().Str("component", "server").Logger(),
		startTime:   time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	return s, nil
}

// Handler returns the server's route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/agent/chat/", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/ws/events", s.handleEvents)

	if s.options.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.options.StaticDir)))
	}

	return mux
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Msg("Starting assistant server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start assistant server: %w", err)
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down assistant server")

	// Wait for in-flight requests with timeout
	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.rateLimiter.Stop()

	// Close event-stream connections
	for _, client := range s.clients.GetAll() {
		client.Conn.Close()
	}

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown assistant server: %w", err)
	}

	s.logger.Info().Msg("Assistant server stopped")
	return nil
}

// SetRunner installs the turn runner. Called once during wiring, before
// Start; a nil runner leaves the chat endpoint in fallback-only mode.
func (s *Server) SetRunner(runner TurnRunner) {
	s.runner = runner
}

// BroadcastTurnEvent publishes a turn lifecycle event to all event-stream
// clients. Satisfies orchestrator.EventFunc.
func (s *Server) BroadcastTurnEvent(event string, data map[string]interface{}) {
	s.broadcaster.Broadcast(event, data)
}

// handleEvents upgrades a connection onto the turn-event stream
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	clientID, _ := gonanoid.New()
	client := &Client{
		ID:           clientID,
		Conn:         conn,
		ConnectedAt:  time.Now(),
		LastActivity: time.Now(),
		IPAddress:    r.RemoteAddr,
	}

	s.clients.Add(client)

	s.logger.Info().
		Str("client_id", clientID).
		Str("ip", r.RemoteAddr).
		Msg("Event stream client connected")

	go s.readClient(client)
}

// readClient drains inbound frames until the connection drops. The stream
// is one-way; client messages are discarded.
func (s *Server) readClient(client *Client) {
	defer func() {
		client.Conn.Close()
		s.clients.Remove(client.ID)
		s.logger.Info().
			Str("client_id", client.ID).
			Msg("Event stream client disconnected")
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
		client.LastActivity = time.Now()
	}
}

// getClientIP extracts the client IP from the request
func (s *Server) getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
