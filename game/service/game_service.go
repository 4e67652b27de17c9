package service

import (
	"context"

	"github.com/wricardo/connect-in-the-dark/game/engine"
	"github.com/wricardo/connect-in-the-dark/game/session"
)

// GameService defines all lobby and game operations
type GameService interface {
	// Connection lifecycle
	IsConnected(clientID string) bool
	Connect(ctx context.Context, clientID string, out session.Outbound) error
	Disconnect(ctx context.Context, clientID string, out session.Outbound)

	// Protocol
	HandleFrame(ctx context.Context, clientID string, frame []byte)

	// Lobby introspection
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	Stats(ctx context.Context) (*Stats, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	CurrentConfig(ctx context.Context) *ConfigInfo
}

// ConfigManager handles board variant loading
type ConfigManager interface {
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
}

// staticConfigs serves a single variant when no ConfigManager is given
type staticConfigs struct {
	config *engine.GameConfig
}

func (s staticConfigs) ListConfigs() ([]*ConfigInfo, error) {
	return []*ConfigInfo{NewConfigInfo(s.config.Name, s.config)}, nil
}

func (s staticConfigs) GetDefault() *engine.GameConfig {
	return s.config
}
