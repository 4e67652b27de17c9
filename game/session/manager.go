package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/wricardo/connect-in-the-dark/game/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrGameInProgress       = errors.New("game already in progress")
	ErrAlreadyInSession     = errors.New("client is already in a session")
	ErrNotMember            = errors.New("client is not a member of the session")
)

const (
	// IDAlphabet and IDLength shape generated room codes
	IDAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	IDLength    = 5
	MaxIDLength = 32

	idAttempts = 8
)

// Session is a room: a set of members with an active flag and an owner.
// Values returned by Manager are snapshots and safe to read freely.
type Session struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Members   map[string]bool `json:"members"`
	CreatedAt time.Time       `json:"created_at"`
}

// MemberIDs returns every member id, sorted
func (s *Session) MemberIDs() []string {
	ids := make([]string, 0, len(s.Members))
	for id := range s.Members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ActiveMemberIDs returns the ids of connected members, sorted
func (s *Session) ActiveMemberIDs() []string {
	ids := make([]string, 0, len(s.Members))
	for id, active := range s.Members {
		if active {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// HasActiveMembers reports whether anyone in the session is connected
func (s *Session) HasActiveMembers() bool {
	for _, active := range s.Members {
		if active {
			return true
		}
	}
	return false
}

func (s *Session) clone() *Session {
	members := make(map[string]bool, len(s.Members))
	for id, active := range s.Members {
		members[id] = active
	}
	return &Session{
		ID:        s.ID,
		Owner:     s.Owner,
		Members:   members,
		CreatedAt: s.CreatedAt,
	}
}

// NormalizeID trims and upper-cases a caller-supplied room code
func NormalizeID(id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" || len(id) > MaxIDLength {
		return "", ErrInvalidSessionID
	}
	return id, nil
}

// GenerateID returns a random room code
func GenerateID() (string, error) {
	return gonanoid.Generate(IDAlphabet, IDLength)
}

// Manager is the session registry. It owns the membership index and
// decides eviction; games attached to evicted sessions are removed from
// the GameStore right after the sessions lock is released.
//
// Lock order is sessions, then games. The GameStore never calls back into
// the Manager.
type Manager struct {
	sessions map[string]*Session
	memberOf map[string]string
	games    *GameStore
	newID    func() (string, error)
	mu       sync.RWMutex
}

// NewManager creates a new session registry backed by games
func NewManager(games *GameStore) *Manager {
	if games == nil {
		games = NewGameStore()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		memberOf: make(map[string]string),
		games:    games,
		newID:    GenerateID,
	}
}

// Games returns the game table attached to this registry
func (m *Manager) Games() *GameStore {
	return m.games
}

// Create registers a new session with ownerID as its sole member. An empty
// id allocates a random room code.
func (m *Manager) Create(ownerID, id string) (*Session, error) {
	if id != "" {
		normalized, err := NormalizeID(id)
		if err != nil {
			return nil, err
		}
		id = normalized
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if other, ok := m.memberOf[ownerID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInSession, other)
	}

	if id == "" {
		generated, err := m.allocateIDLocked()
		if err != nil {
			return nil, err
		}
		id = generated
	} else if _, exists := m.sessions[id]; exists {
		return nil, ErrSessionAlreadyExists
	}

	session := &Session{
		ID:        id,
		Owner:     ownerID,
		Members:   map[string]bool{ownerID: true},
		CreatedAt: time.Now(),
	}
	m.sessions[id] = session
	m.memberOf[ownerID] = id

	return session.clone(), nil
}

func (m *Manager) allocateIDLocked() (string, error) {
	for i := 0; i < idAttempts; i++ {
		id, err := m.newID()
		if err != nil {
			return "", fmt.Errorf("failed to generate session ID: %w", err)
		}
		if _, taken := m.sessions[id]; !taken {
			return id, nil
		}
	}
	return "", ErrSessionAlreadyExists
}

// Join adds clientID to an existing session. Joining a session that
// already has a game is refused. Joining the session the client is
// already in reactivates the membership.
func (m *Manager) Join(clientID, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if other, ok := m.memberOf[clientID]; ok {
		if other != sessionID {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyInSession, other)
		}
		session.Members[clientID] = true
		return session.clone(), nil
	}

	if m.games.Has(sessionID) {
		return nil, ErrGameInProgress
	}

	session.Members[clientID] = true
	m.memberOf[clientID] = sessionID

	return session.clone(), nil
}

// Leave removes clientID from the session. The returned snapshot is the
// session after removal; evicted reports whether it was removed entirely.
func (m *Manager) Leave(clientID, sessionID string) (*Session, bool, error) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, false, ErrSessionNotFound
	}
	if _, member := session.Members[clientID]; !member {
		m.mu.Unlock()
		return nil, false, ErrNotMember
	}

	delete(session.Members, clientID)
	delete(m.memberOf, clientID)

	evicted := m.evictIfEmptyLocked(session)
	if !evicted && session.Owner == clientID {
		session.Owner = session.ActiveMemberIDs()[0]
	}
	snapshot := session.clone()
	m.mu.Unlock()

	if evicted {
		m.games.Delete(sessionID)
	}
	return snapshot, evicted, nil
}

// SetActive flips a member's connection flag. Deactivating the last
// active member evicts the session and its game.
func (m *Manager) SetActive(clientID, sessionID string, active bool) (*Session, bool, error) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, false, ErrSessionNotFound
	}
	if _, member := session.Members[clientID]; !member {
		m.mu.Unlock()
		return nil, false, ErrNotMember
	}

	session.Members[clientID] = active
	evicted := false
	if !active {
		evicted = m.evictIfEmptyLocked(session)
	}
	snapshot := session.clone()
	m.mu.Unlock()

	if evicted {
		m.games.Delete(sessionID)
	}
	return snapshot, evicted, nil
}

// EvictIfEmpty removes the session and its game when no member is active
func (m *Manager) EvictIfEmpty(sessionID string) bool {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	evicted := ok && m.evictIfEmptyLocked(session)
	m.mu.Unlock()

	if evicted {
		m.games.Delete(sessionID)
	}
	return evicted
}

// evictIfEmptyLocked drops the session and its membership index entries.
// The game is deleted by the caller once the sessions lock is released;
// until then a recreated session with the same id may still see it.
func (m *Manager) evictIfEmptyLocked(session *Session) bool {
	if session.HasActiveMembers() {
		return false
	}
	for id := range session.Members {
		delete(m.memberOf, id)
	}
	delete(m.sessions, session.ID)
	return true
}

// StartGame builds a game from the session's active members and attaches
// it. announce runs while the new game is locked, so nothing can observe a
// play on it before the announcement has been queued.
func (m *Manager) StartGame(sessionID string, build func(active []string) (*engine.Game, error), announce func(*Session, *engine.Game)) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.games.Has(sessionID) {
		return nil, ErrGameInProgress
	}

	game, err := build(session.ActiveMemberIDs())
	if err != nil {
		return nil, err
	}

	snapshot := session.clone()
	err = m.games.Create(sessionID, game, func(g *engine.Game) {
		if announce != nil {
			announce(snapshot, g)
		}
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// WithGame runs fn with the session snapshot and its game under the game's
// write lock. Membership cannot change while fn runs.
func (m *Manager) WithGame(sessionID string, fn func(*Session, *engine.Game) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	snapshot := session.clone()
	return m.games.Update(sessionID, func(g *engine.Game) error {
		return fn(snapshot, g)
	})
}

// ViewGame runs fn with the session snapshot and its game, if any, under
// read locks. game is nil when the session has no game.
func (m *Manager) ViewGame(sessionID string, fn func(s *Session, game *engine.Game)) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	snapshot := session.clone()
	err := m.games.View(sessionID, func(g *engine.Game) {
		fn(snapshot, g)
	})
	if errors.Is(err, ErrGameNotFound) {
		fn(snapshot, nil)
		return nil
	}
	return err
}

// FindByMember returns the session that lists clientID as a member
func (m *Manager) FindByMember(clientID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.memberOf[clientID]
	return id, ok
}

// Get retrieves a session snapshot by ID
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.clone(), nil
}

// List returns snapshots of all sessions, oldest first
func (m *Manager) List() []*Session {
	m.mu.RLock()
	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session.clone())
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
