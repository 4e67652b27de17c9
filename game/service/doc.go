// Package service is the event dispatcher for Connect in the Dark.
//
// It turns inbound protocol frames into session and game transitions and
// fans the resulting events out to session members. Transports hand it a
// client identity, an Outbound handle and raw frames; everything shared
// lives in the session package registries injected at construction.
//
// Protocol errors (malformed JSON, unknown event codes, missing fields) are
// logged and dropped. Rule violations are answered with a LogicError sent
// to the requester only; the one exception is a StartGame shortfall, which
// is announced to the whole session.
//
// Usage:
//
//	games := session.NewGameStore()
//	svc := service.NewGameService(
//		session.NewManager(games),
//		session.NewClientRegistry(),
//		configManager,
//		service.WithLogger(logger),
//		service.WithMetrics(m),
//	)
//
//	if err := svc.Connect(ctx, "alice", outbox); err != nil {
//		// identity already connected
//	}
//	svc.HandleFrame(ctx, "alice", []byte(`{"event_code":2}`))
//
// Every member of a game receives its own redacted board. GameEnded is the
// only event that carries the full board.
package service
