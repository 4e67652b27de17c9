// Package websocket is the connection manager: it accepts websocket
// connections for a claimed client identity and pumps frames between the
// socket and the game dispatcher.
//
// Each connection runs two goroutines. The read pump decodes nothing itself;
// it drops non-text frames and "ping" keep-alives and hands every other
// frame to the Dispatcher in arrival order. The write pump drains an
// unbounded outbox, writing one websocket message per frame, and sends
// periodic pings.
//
// Connection lifecycle:
//
//  1. ServeWS refuses an empty id (400) or an id that is already connected
//     (409) before upgrading.
//  2. After the upgrade the Dispatcher registers the identity and restores
//     its session membership, if any.
//  3. When the socket closes, or the Hub is shut down, the read pump calls
//     Dispatcher.Disconnect and closes the outbox.
//
// Usage:
//
//	hub := websocket.NewHub(gameService, websocket.WithLogger(logger))
//	go hub.Run(ctx)
//
//	router.HandleFunc("/api/ws/{id}", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, mux.Vars(r)["id"])
//	})
package websocket
