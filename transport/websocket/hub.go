package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/connect-in-the-dark/game/session"
	"github.com/wricardo/connect-in-the-dark/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Dispatcher is the game core as seen by the transport
type Dispatcher interface {
	IsConnected(clientID string) bool
	Connect(ctx context.Context, clientID string, out session.Outbound) error
	Disconnect(ctx context.Context, clientID string, out session.Outbound)
	HandleFrame(ctx context.Context, clientID string, frame []byte)
}

// Hub tracks open connections so they can be closed together on shutdown.
// Identity and session state live in the Dispatcher.
type Hub struct {
	dispatcher Dispatcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader

	// Open connections, owned by Run
	clients map[*Client]bool

	// Register requests from new connections
	register chan *Client

	// Unregister requests from closing connections
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}
}

// Option customizes a Hub
type Option func(*Hub)

// WithLogger sets the hub logger
func WithLogger(logger *zap.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithMetrics records connection outcomes into m
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// NewHub creates a new WebSocket hub
func NewHub(dispatcher Dispatcher, opts ...Option) *Hub {
	h := &Hub{
		dispatcher: dispatcher,
		logger:     zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Browser clients are served from any origin
				return true
			},
		},
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("ws")
	return h
}

// Run starts the hub's event loop. When ctx is cancelled every open
// connection is closed, which runs its normal disconnect path.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("connection registered",
				zap.String("client_id", client.id),
				zap.String("conn_id", client.connID),
				zap.Int("open", len(h.clients)))

		case client := <-h.unregister:
			delete(h.clients, client)

		case <-ctx.Done():
			h.logger.Info("closing connections", zap.Int("open", len(h.clients)))
			for client := range h.clients {
				client.shutdown()
			}
			return
		}
	}
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ServeWS upgrades the request to a websocket bound to clientID. Empty ids
// are refused with 400 and identities that are already connected with 409,
// both before the upgrade.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, clientID string) {
	clientID = strings.TrimSpace(clientID)
	log := h.logger.With(zap.String("client_id", clientID), zap.String("remote", r.RemoteAddr))

	if clientID == "" {
		h.metrics.Connection("bad_request")
		http.Error(w, "client id is required", http.StatusBadRequest)
		return
	}
	if h.dispatcher.IsConnected(clientID) {
		h.metrics.Connection("conflict")
		log.Info("refusing duplicate connection")
		http.Error(w, "client id is already connected", http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.Connection("upgrade_failed")
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The request context ends when this handler returns
	ctx := context.WithoutCancel(r.Context())
	client := newClient(h, conn, clientID, uuid.NewString())
	log = log.With(zap.String("conn_id", client.connID))

	if err := h.dispatcher.Connect(ctx, clientID, client.out); err != nil {
		// Lost a race with another connection for the same id
		h.metrics.Connection("conflict")
		log.Info("refusing duplicate connection after upgrade", zap.Error(err))
		client.closeWith(websocket.ClosePolicyViolation, "client id is already connected")
		return
	}

	select {
	case h.register <- client:
	case <-h.done:
		h.dispatcher.Disconnect(ctx, clientID, client.out)
		client.out.Close()
		client.closeWith(websocket.CloseGoingAway, "server shutting down")
		return
	}

	h.metrics.Connection("accepted")
	log.Info("client connected")

	go client.writePump()
	go client.readPump(ctx)
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
