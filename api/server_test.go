package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/connect-in-the-dark/game/service"
	"github.com/wricardo/connect-in-the-dark/game/session"
	"github.com/wricardo/connect-in-the-dark/metrics"
	"github.com/wricardo/connect-in-the-dark/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Connection lifecycle
	IsConnectedFunc func(clientID string) bool
	ConnectFunc     func(ctx context.Context, clientID string, out session.Outbound) error

	// Lobby
	ListSessionsFunc func(ctx context.Context) ([]*service.SessionInfo, error)
	GetSessionFunc   func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	StatsFunc        func(ctx context.Context) (*service.Stats, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
}

func (m *MockGameService) IsConnected(clientID string) bool {
	if m.IsConnectedFunc != nil {
		return m.IsConnectedFunc(clientID)
	}
	return false
}

func (m *MockGameService) Connect(ctx context.Context, clientID string, out session.Outbound) error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx, clientID, out)
	}
	return nil
}

func (m *MockGameService) Disconnect(ctx context.Context, clientID string, out session.Outbound) {}

func (m *MockGameService) HandleFrame(ctx context.Context, clientID string, frame []byte) {}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) Stats(ctx context.Context) (*service.Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &service.Stats{}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{{ConfigID: "classic", Name: "classic", Width: 7, Height: 6, RunLength: 4}}, nil
}

func (m *MockGameService) CurrentConfig(ctx context.Context) *service.ConfigInfo {
	return &service.ConfigInfo{ConfigID: "classic", Name: "classic", Width: 7, Height: 6, RunLength: 4}
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService, opts ...Option) *Server {
	hub := websocket.NewHub(mockService)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(mockService, hub, opts...)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()

	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", resp["status"])
	}
}

func TestListSessions(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "List multiple sessions",
			path: "/api/sessions",
			setupMock: func(m *MockGameService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return []*service.SessionInfo{
						{ID: "ABCDE", Owner: "alice"},
						{ID: "FGHIJ", Owner: "bob"},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]interface{}
				parseResponse(t, w, &resp)
				if resp["count"].(float64) != 2 {
					t.Errorf("Expected count 2, got %v", resp["count"])
				}
				sessions := resp["sessions"].([]interface{})
				if len(sessions) != 2 {
					t.Errorf("Expected 2 sessions, got %d", len(sessions))
				}
			},
		},
		{
			name: "Apply limit",
			path: "/api/sessions?limit=1",
			setupMock: func(m *MockGameService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return []*service.SessionInfo{{ID: "ABCDE"}, {ID: "FGHIJ"}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]interface{}
				parseResponse(t, w, &resp)
				if resp["count"].(float64) != 1 || resp["total"].(float64) != 2 {
					t.Errorf("Expected count 1 of 2, got %v of %v", resp["count"], resp["total"])
				}
			},
		},
		{
			name: "Handle service error",
			path: "/api/sessions",
			setupMock: func(m *MockGameService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"Found", nil, http.StatusOK},
		{"Not found", session.ErrSessionNotFound, http.StatusNotFound},
		{"Invalid id", session.ErrInvalidSessionID, http.StatusBadRequest},
		{"Other error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					if sessionID != "abcde" {
						t.Errorf("Expected raw id abcde, got %s", sessionID)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.SessionInfo{ID: "ABCDE", Owner: "alice"}, nil
				},
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/abcde", nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestStats(t *testing.T) {
	mockService := &MockGameService{
		StatsFunc: func(ctx context.Context) (*service.Stats, error) {
			return &service.Stats{ConnectedClients: 3, Sessions: 2, Games: 1}, nil
		},
	}
	server := setupTestServer(t, mockService)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/stats", nil))

	var resp service.Stats
	parseResponse(t, w, &resp)
	if resp.ConnectedClients != 3 || resp.Sessions != 2 || resp.Games != 1 {
		t.Errorf("Unexpected stats %+v", resp)
	}
}

func TestListConfigs(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()

	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/configs", nil))

	var resp struct {
		Configs []service.ConfigInfo `json:"configs"`
		Current service.ConfigInfo   `json:"current"`
	}
	parseResponse(t, w, &resp)
	if len(resp.Configs) != 1 || resp.Current.ConfigID != "classic" {
		t.Errorf("Unexpected configs response %+v", resp)
	}
}

func TestWebSocketRoute(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		connected      bool
		expectedStatus int
	}{
		{"Empty id", "/api/ws/", false, http.StatusBadRequest},
		{"Blank id", "/api/ws/%20%20", false, http.StatusBadRequest},
		{"Duplicate id", "/api/ws/alice", true, http.StatusConflict},
		{"Not an upgrade", "/api/ws/alice", false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				IsConnectedFunc: func(string) bool { return tt.connected },
			}
			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()

			server.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.GameStarted()
	server := setupTestServer(t, &MockGameService{}, WithMetrics(m))
	w := httptest.NewRecorder()

	server.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "connectdark_games_started_total 1") {
		t.Error("Expected games_started counter in exposition")
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>dark</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	server := setupTestServer(t, &MockGameService{}, WithStaticDir(dir))
	w := httptest.NewRecorder()

	server.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "dark") {
		t.Errorf("Expected index.html, got %d %q", w.Code, w.Body.String())
	}
}
