package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/connect-in-the-dark/game/engine"
	"github.com/wricardo/connect-in-the-dark/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Connect in the Dark",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Connect in the Dark - MCP Interface

This is a read-only lobby client that proxies to the REST API server.
Games themselves are played over the websocket at /api/ws/{client_id}.

AVAILABLE TOOLS:
- list_sessions: List live rooms with their members and game status
- get_session: Details of one room
- server_stats: Connected clients, rooms and running games
- list_configs: Board variants and the one new games use
- game_rules: How the game and its websocket protocol work

Board contents are never exposed here: every player only ever sees their own tokens.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all live game rooms",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of rooms to return (optional)",
				},
			},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Room code, case-insensitive",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Count connected clients, rooms and running games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board variants",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Explain the rules and the websocket protocol",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiGet(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// Tool handlers

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/sessions"
	if limit, ok := arguments(request)["limit"].(float64); ok && limit > 0 {
		path += fmt.Sprintf("?limit=%d", int(limit))
	}

	var response struct {
		Count    int                   `json:"count"`
		Total    int                   `json:"total"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiGet(ctx, path, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Live Rooms (%d of %d):\n\n", response.Count, response.Total)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s owner=%s members=%d %s (created %s)\n",
			s.ID, s.Owner, len(s.Members), gameStatus(s.Game), s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	if strings.TrimSpace(sessionID) == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var session service.SessionInfo
	if err := c.apiGet(ctx, "/api/sessions/"+url.PathEscape(sessionID), &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	if err := c.apiGet(ctx, "/api/stats", &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Connected clients: %d\nRooms: %d\nRunning games: %d\n",
		stats.ConnectedClients, stats.Sessions, stats.Games)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Configs []service.ConfigInfo `json:"configs"`
		Current service.ConfigInfo   `json:"current"`
	}
	if err := c.apiGet(ctx, "/api/configs", &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Board Variants:\n\n")
	for _, cfg := range response.Configs {
		marker := " "
		if cfg.ConfigID == response.Current.ConfigID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s: %dx%d, connect %d, %s", marker, cfg.ConfigID, cfg.Width, cfg.Height, cfg.RunLength, playerRange(cfg))
		if cfg.Description != "" {
			fmt.Fprintf(&b, " - %s", cfg.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n* used for new games\n")
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules), nil
}

func formatSessionInfo(s *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room: %s\nOwner: %s\nCreated: %s\n", s.ID, s.Owner, s.CreatedAt.Format(time.RFC3339))

	b.WriteString("Members:\n")
	for _, m := range s.Members {
		state := "connected"
		if !m.Active {
			state = "away"
		}
		fmt.Fprintf(&b, "  - %s (%s)\n", m.ID, state)
	}

	fmt.Fprintf(&b, "Game: %s\n", gameStatus(s.Game))
	if g := s.Game; g != nil {
		fmt.Fprintf(&b, "Turn order: %s\nPlays: %d\n", strings.Join(g.TurnOrder, ", "), g.Plays)
		if !g.Over {
			fmt.Fprintf(&b, "To move: %s\n", g.CurrentPlayer)
		}
	}
	return b.String()
}

func gameStatus(g *service.GameInfo) string {
	switch {
	case g == nil:
		return "waiting"
	case g.Draw:
		return "ended in a draw"
	case g.Winner != "":
		return "won by " + g.Winner
	default:
		return "in progress"
	}
}

func playerRange(cfg service.ConfigInfo) string {
	if cfg.MaxPlayers > 0 {
		return fmt.Sprintf("%d-%d players", cfg.MinPlayers, cfg.MaxPlayers)
	}
	return fmt.Sprintf("%d+ players", cfg.MinPlayers)
}

var gameRules = fmt.Sprintf(`CONNECT IN THE DARK

Players take turns dropping a token into a column; it falls to the lowest
empty row. The first player to line up the run length of the variant
(4 on the classic 7x6 board) vertically, horizontally or diagonally wins.
A full board without a line is a draw.

The twist: you only ever see your own tokens. Every other occupied cell
shows as unknown (%d) and empty cells as %d. The full board is revealed
when the game ends.

PROTOCOL (one JSON object per websocket text frame)
Connect to /api/ws/{client_id}. Send:
  {"event_code":2}                                 create a room
  {"event_code":1,"data":{"session_id":"ABCDE"}}   join (or reserve) a room
  {"event_code":3}                                 leave the room
  {"event_code":4}                                 ask for room status
  {"event_code":5}                                 start the game (2+ players)
  {"event_code":6,"data":{"column":3}}             play a column

Receive: 1 client joined, 2 client left, 3 game started, 4 room status,
5 turn start, 6 error (see "message"), 7 game ended.
`, engine.UnknownCode, engine.EmptyCode)
