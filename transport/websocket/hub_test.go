package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/connect-in-the-dark/game/session"
)

// mockDispatcher records calls; nil Func fields fall back to a registry
// that accepts one connection per id.
type mockDispatcher struct {
	IsConnectedFunc func(clientID string) bool
	ConnectFunc     func(ctx context.Context, clientID string, out session.Outbound) error

	mu          sync.Mutex
	connected   map[string]session.Outbound
	frames      chan string
	disconnects chan string
}

func newMockDispatcher() *mockDispatcher {
	return &mockDispatcher{
		connected:   make(map[string]session.Outbound),
		frames:      make(chan string, 16),
		disconnects: make(chan string, 16),
	}
}

func (m *mockDispatcher) IsConnected(clientID string) bool {
	if m.IsConnectedFunc != nil {
		return m.IsConnectedFunc(clientID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.connected[clientID]
	return ok
}

func (m *mockDispatcher) Connect(ctx context.Context, clientID string, out session.Outbound) error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx, clientID, out)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connected[clientID]; ok {
		return session.ErrIdentityConflict
	}
	m.connected[clientID] = out
	return nil
}

func (m *mockDispatcher) Disconnect(ctx context.Context, clientID string, out session.Outbound) {
	m.mu.Lock()
	if m.connected[clientID] == out {
		delete(m.connected, clientID)
	}
	m.mu.Unlock()
	m.disconnects <- clientID
}

func (m *mockDispatcher) HandleFrame(ctx context.Context, clientID string, frame []byte) {
	m.frames <- clientID + ":" + string(frame)
}

func (m *mockDispatcher) outbound(clientID string) session.Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected[clientID]
}

func startHub(t *testing.T, dispatcher Dispatcher) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub(dispatcher, WithLogger(zaptest.NewLogger(t)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, strings.TrimPrefix(r.URL.Path, "/ws/"))
	}))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, server, cancel
}

func dial(t *testing.T, server *httptest.Server, id string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + id
	return websocket.DefaultDialer.Dial(url, nil)
}

func mustDial(t *testing.T, server *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := dial(t, server, id)
	if err != nil {
		t.Fatalf("dial %s: %v", id, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, ch <-chan string, what string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}

func waitConnected(t *testing.T, m *mockDispatcher, id string) session.Outbound {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if out := m.outbound(id); out != nil {
			return out
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s never connected", id)
	return nil
}

func TestServeWS_EmptyID(t *testing.T) {
	hub := NewHub(newMockDispatcher())
	req := httptest.NewRequest(http.MethodGet, "/ws/", nil)
	rec := httptest.NewRecorder()

	hub.ServeWS(rec, req, "   ")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServeWS_DuplicateIdentity(t *testing.T) {
	dispatcher := newMockDispatcher()
	_, server, _ := startHub(t, dispatcher)

	mustDial(t, server, "alice")
	waitConnected(t, dispatcher, "alice")

	_, resp, err := dial(t, server, "alice")
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("expected a refused handshake, got %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestServeWS_ConnectRaceClosesSocket(t *testing.T) {
	dispatcher := newMockDispatcher()
	dispatcher.ConnectFunc = func(context.Context, string, session.Outbound) error {
		return session.ErrIdentityConflict
	}
	_, server, _ := startHub(t, dispatcher)

	conn := mustDial(t, server, "alice")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Errorf("expected policy violation close, got %v", err)
	}
}

func TestReadPump_DispatchesTextFrames(t *testing.T) {
	dispatcher := newMockDispatcher()
	_, server, _ := startHub(t, dispatcher)
	conn := mustDial(t, server, "alice")

	conn.WriteMessage(websocket.TextMessage, []byte("ping"))
	conn.WriteMessage(websocket.TextMessage, []byte("ping\n"))
	conn.WriteMessage(websocket.BinaryMessage, []byte(`{"event_code":2}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"event_code":4}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"event_code":2}`))

	if got := waitFor(t, dispatcher.frames, "first frame"); got != `alice:{"event_code":4}` {
		t.Errorf("keep-alives and binary frames must be skipped, got %q", got)
	}
	if got := waitFor(t, dispatcher.frames, "second frame"); got != `alice:{"event_code":2}` {
		t.Errorf("frames must arrive in order, got %q", got)
	}
}

func TestWritePump_OneMessagePerFrame(t *testing.T) {
	dispatcher := newMockDispatcher()
	_, server, _ := startHub(t, dispatcher)
	conn := mustDial(t, server, "alice")
	out := waitConnected(t, dispatcher, "alice")

	want := []string{`{"event_code":1}`, `{"event_code":5}`, `{"event_code":7}`}
	for _, frame := range want {
		if err := out.Send([]byte(frame)); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i, expected := range want {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if messageType != websocket.TextMessage || string(data) != expected {
			t.Errorf("message %d: got %q, want %q", i, data, expected)
		}
	}
}

func TestClientClose_Disconnects(t *testing.T) {
	dispatcher := newMockDispatcher()
	_, server, _ := startHub(t, dispatcher)
	conn := mustDial(t, server, "alice")
	out := waitConnected(t, dispatcher, "alice")

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	if got := waitFor(t, dispatcher.disconnects, "disconnect"); got != "alice" {
		t.Errorf("expected alice to disconnect, got %q", got)
	}
	if dispatcher.IsConnected("alice") {
		t.Error("alice should no longer be connected")
	}

	// The old outbox refuses frames once the connection is gone
	deadline := time.Now().Add(2 * time.Second)
	for out.Send([]byte("late")) == nil {
		if time.Now().After(deadline) {
			t.Fatal("outbox still accepting frames after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The identity is free again
	mustDial(t, server, "alice")
	waitConnected(t, dispatcher, "alice")
}

func TestHubShutdown_ClosesConnections(t *testing.T) {
	dispatcher := newMockDispatcher()
	hub, server, cancel := startHub(t, dispatcher)
	conn := mustDial(t, server, "alice")
	waitConnected(t, dispatcher, "alice")

	cancel()

	if got := waitFor(t, dispatcher.disconnects, "disconnect"); got != "alice" {
		t.Errorf("expected alice to disconnect, got %q", got)
	}
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the server to close the connection")
	}

	// Connections after shutdown are closed straight away
	late := mustDial(t, server, "bob")
	waitFor(t, dispatcher.disconnects, "late disconnect")
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := late.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}

func TestIsKeepAlive(t *testing.T) {
	for frame, want := range map[string]bool{
		"ping":             true,
		"ping\n":           true,
		"PING":             false,
		"ping\n\n":         false,
		`{"event_code":4}`: false,
	} {
		if got := isKeepAlive([]byte(frame)); got != want {
			t.Errorf("isKeepAlive(%q) = %v, want %v", frame, got, want)
		}
	}
}
