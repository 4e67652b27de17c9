package session

import (
	"errors"
	"sync"

	"github.com/wricardo/connect-in-the-dark/game/engine"
)

var ErrGameNotFound = errors.New("no game in progress")

// GameStore maps session IDs to their running game
type GameStore struct {
	games map[string]*engine.Game
	mu    sync.RWMutex
}

// NewGameStore creates an empty game table
func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]*engine.Game),
	}
}

// Create attaches game to sessionID. onCreate, if set, runs before the
// write lock is released.
func (s *GameStore) Create(sessionID string, game *engine.Game, onCreate func(*engine.Game)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[sessionID]; exists {
		return ErrGameInProgress
	}
	s.games[sessionID] = game

	if onCreate != nil {
		onCreate(game)
	}
	return nil
}

// Has reports whether sessionID has a game attached
func (s *GameStore) Has(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.games[sessionID]
	return ok
}

// Delete detaches the game from sessionID
func (s *GameStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[sessionID]; !ok {
		return false
	}
	delete(s.games, sessionID)
	return true
}

// View runs fn under the read lock
func (s *GameStore) View(sessionID string, fn func(*engine.Game)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.games[sessionID]
	if !ok {
		return ErrGameNotFound
	}
	fn(game)
	return nil
}

// Update runs fn under the write lock and returns its error
func (s *GameStore) Update(sessionID string, fn func(*engine.Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[sessionID]
	if !ok {
		return ErrGameNotFound
	}
	return fn(game)
}

// Count returns the number of running games
func (s *GameStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
