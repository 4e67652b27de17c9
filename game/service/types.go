package service

import (
	"time"

	"github.com/wricardo/connect-in-the-dark/game/engine"
)

// SessionInfo is the read-only lobby view of a session. It never carries
// board contents.
type SessionInfo struct {
	ID        string       `json:"id"`
	Owner     string       `json:"owner"`
	Members   []MemberInfo `json:"members"`
	CreatedAt time.Time    `json:"created_at"`
	Game      *GameInfo    `json:"game,omitempty"`
}

// MemberInfo describes one session member
type MemberInfo struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// GameInfo summarizes a game without revealing the board
type GameInfo struct {
	TurnOrder     []string `json:"turn_order"`
	TurnIndex     int      `json:"turn_index"`
	CurrentPlayer string   `json:"current_player"`
	Plays         int      `json:"plays"`
	Over          bool     `json:"over"`
	Winner        string   `json:"winner,omitempty"`
	Draw          bool     `json:"draw,omitempty"`
}

// Stats is a point-in-time count of live objects
type Stats struct {
	ConnectedClients int `json:"connected_clients"`
	Sessions         int `json:"sessions"`
	Games            int `json:"games"`
}

// ConfigInfo describes a board variant
type ConfigInfo struct {
	ConfigID    string `json:"config_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	RunLength   int    `json:"run_length"`
	MinPlayers  int    `json:"min_players"`
	MaxPlayers  int    `json:"max_players,omitempty"`
}

// NewConfigInfo describes config under the identifier id
func NewConfigInfo(id string, config *engine.GameConfig) *ConfigInfo {
	return &ConfigInfo{
		ConfigID:    id,
		Name:        config.Name,
		Description: config.Description,
		Width:       config.Width,
		Height:      config.Height,
		RunLength:   config.RunLength,
		MinPlayers:  config.MinPlayers,
		MaxPlayers:  config.MaxPlayers,
	}
}

func newGameInfo(game *engine.Game) *GameInfo {
	return &GameInfo{
		TurnOrder:     game.TurnOrder(),
		TurnIndex:     game.TurnIndex(),
		CurrentPlayer: game.CurrentPlayer(),
		Plays:         game.Plays(),
		Over:          game.IsOver(),
		Winner:        game.Winner(),
		Draw:          game.IsDraw(),
	}
}
