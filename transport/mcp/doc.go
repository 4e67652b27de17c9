// Package mcp exposes the lobby of a Connect in the Dark server to AI agents
// over the Model Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API of a running
// server and renders the answer as text. It is read-only; playing happens
// over the websocket protocol, which the game_rules tool describes.
//
// MCP Tools:
//   - list_sessions: live rooms, members and game status
//   - get_session: one room by code
//   - server_stats: connected clients, rooms and games
//   - list_configs: board variants
//   - game_rules: rules and protocol reference
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8000")
//	server.ServeStdio(client.GetMCPServer())
package mcp
