// Package session stores conversation state between turns. Sessions live
// in memory; a process restart starts everyone over, which is acceptable
// for the coaching chat surface.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/chat"
)

// ErrNotFound indicates the session does not exist.
var ErrNotFound = errors.New("session not found")

// MaxTurns caps the stored history per session so long conversations do
// not grow memory without bound. The oldest turns are dropped first.
const MaxTurns = 200

// Session is one conversation.
type Session struct {
	ID        uuid.UUID               `json:"id"`
	UserID    string                  `json:"userId"`
	Title     string                  `json:"title"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
	Turns     []chat.ConversationTurn `json:"turns,omitempty"`
}

// Store is a mutex-guarded in-memory session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

// Create starts a new session for a user.
func (s *Store) Create(userID, title string) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return copySession(sess)
}

// Get returns a session by ID.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return copySession(sess), nil
}

// AppendTurn records a conversation turn and bumps UpdatedAt.
func (s *Store) AppendTurn(id uuid.UUID, turn chat.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	sess.Turns = append(sess.Turns, turn)
	if len(sess.Turns) > MaxTurns {
		sess.Turns = sess.Turns[len(sess.Turns)-MaxTurns:]
	}
	sess.UpdatedAt = time.Now()
	return nil
}

// History returns the session's turns in chronological order.
func (s *Store) History(id uuid.UUID) ([]chat.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	turns := make([]chat.ConversationTurn, len(sess.Turns))
	copy(turns, sess.Turns)
	return turns, nil
}

// List returns all sessions, most recently updated first, without turns.
func (s *Store) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		summary := copySession(sess)
		summary.Turns = nil
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Delete removes a session.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

func copySession(sess *Session) *Session {
	out := *sess
	if sess.Turns != nil {
		out.Turns = make([]chat.ConversationTurn, len(sess.Turns))
		copy(out.Turns, sess.Turns)
	}
	return &out
}
