// Package session provides the shared lobby state for Connect in the Dark.
//
// The session package implements:
//   - The session registry (Manager): rooms, members, owners and eviction
//   - The game table (GameStore): one running game per session
//   - The client registry (ClientRegistry): live connections and the
//     session each one is in
//
// Session Identifiers:
//
// Generated sessions use 5-letter upper-case codes (A-Z). Callers may also
// reserve a code by joining a session that does not exist yet; supplied
// codes are trimmed and upper-cased.
//
// Concurrency:
//
// Each registry is a map behind a sync.RWMutex. Snapshots are returned by
// value so callers never hold references into a locked map. When more than
// one lock is needed they are taken in the order sessions, games, clients.
// Callbacks passed to Manager.StartGame, Manager.WithGame and
// Manager.ViewGame run while those locks are held and must not call back
// into the Manager or the GameStore.
//
// Eviction:
//
// A session with no active member is removed under the sessions write lock;
// its game is deleted right after the lock is released. A client that
// recreates the same code in that window can briefly see the stale game and
// be refused a join. The window is bounded by a single map delete and is
// accepted.
//
// Usage:
//
//	games := session.NewGameStore()
//	sessions := session.NewManager(games)
//	clients := session.NewClientRegistry()
//
//	s, err := sessions.Create("alice", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	_, err = sessions.Join("bob", s.ID)
package session
