// Package api provides the HTTP surface of the Connect in the Dark server.
//
// Endpoints:
//
// Play:
//   - GET /api/ws/{id} - Upgrade to the game websocket as client {id}
//
// Lobby (read-only, never exposes board contents):
//   - GET /api/sessions - List live sessions (optional ?limit=N)
//   - GET /api/sessions/{id} - Get one session by room code
//   - GET /api/stats - Connected clients, sessions and games
//
// Configuration:
//   - GET /api/configs - Board variants and the one new games use
//
// Operations:
//   - GET /api/health - Liveness
//   - GET /metrics - Prometheus exposition, when metrics are enabled
//
// Everything else is served from the static directory (default "dist").
//
// Usage:
//
//	server := api.NewServer(gameService, hub,
//		api.WithStaticDir("dist"),
//		api.WithMetrics(m),
//		api.WithLogger(logger),
//	)
//	http.ListenAndServe(":8000", server)
package api
