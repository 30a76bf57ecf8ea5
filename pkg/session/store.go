// Package session keeps per-session conversation history for interactive
// hosts. The router itself is stateless; hosts own the history and pass it in.
package session

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Protocol-Lattice/perplexia/pkg/router"
)

// DefaultSize bounds the number of live sessions.
const DefaultSize = 256

// Store maps session ids to their history. The least recently used session
// is dropped once the store is full.
type Store struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, []router.Message]
	maxTurns int
}

// New creates a store for size sessions. maxTurns caps the history kept per
// session; zero keeps everything.
func New(size, maxTurns int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, []router.Message](size)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	return &Store{sessions: cache, maxTurns: maxTurns}, nil
}

// Append adds turns to the session, trimming the oldest beyond maxTurns.
func (s *Store) Append(id string, msgs ...router.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, _ := s.sessions.Get(id)
	history = append(append([]router.Message(nil), history...), msgs...)
	if s.maxTurns > 0 && len(history) > s.maxTurns {
		history = history[len(history)-s.maxTurns:]
	}
	s.sessions.Add(id, history)
}

// History returns a copy of the session's turns, oldest first.
func (s *Store) History(id string) []router.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.sessions.Get(id)
	if !ok {
		return nil
	}
	return append([]router.Message(nil), history...)
}

func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(id)
}

// Len reports how many sessions are live.
func (s *Store) Len() int {
	return s.sessions.Len()
}
