package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yilmaz/voxa/internal/observability"
)

// Message is a single conversation turn record in the shape the reply
// provider maintains it: a role plus content. The orchestrator threads
// these through without interpreting them.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session holds the state of one ongoing conversation.
type Session struct {
	ID           string    `json:"session_id"`
	History      []Message `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Store is a mutex-guarded in-memory session map. Operations against the
// same session identifier are linearizable; concurrent turns for the same
// session race on history with last-writer-wins semantics.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore(logger zerolog.Logger) *Store {
	observability.EnsureRegistered()

	return &Store{
		sessions: make(map[string]*Session),
		logger:   logger.With().Str("component", "session-store").Logger(),
		now:      time.Now,
	}
}

// GetOrCreate returns the session for sessionID, creating it with empty
// history on first reference. Existing sessions get their last-accessed
// timestamp refreshed. The returned Session is a snapshot; mutating it
// does not affect the store.
func (s *Store) GetOrCreate(sessionID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		now := s.now()
		sess = &Session{
			ID:           sessionID,
			History:      []Message{},
			CreatedAt:    now,
			LastAccessed: now,
		}
		s.sessions[sessionID] = sess
		observability.SetActiveSessions(len(s.sessions))
		s.logger.Info().Str("session_id", sessionID).Msg("Session created")
	} else {
		sess.LastAccessed = s.now()
	}

	return s.snapshot(sess)
}

// UpdateHistory replaces the session's history wholesale and refreshes its
// last-accessed timestamp. Unknown session identifiers are a no-op; the
// store never creates a session on update.
func (s *Store) UpdateHistory(sessionID string, history []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		s.logger.Warn().Str("session_id", sessionID).Msg("History update for unknown session ignored")
		return
	}

	sess.History = append([]Message(nil), history...)
	sess.LastAccessed = s.now()

	s.logger.Debug().
		Str("session_id", sessionID).
		Int("messages", len(sess.History)).
		Msg("Session history updated")
}

// Count returns the number of sessions currently resident.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

func (s *Store) snapshot(sess *Session) Session {
	return Session{
		ID:           sess.ID,
		History:      append([]Message(nil), sess.History...),
		CreatedAt:    sess.CreatedAt,
		LastAccessed: sess.LastAccessed,
	}
}
