package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is one websocket connection bound to a client identity
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	out    *outbox
	id     string
	connID string
	logger *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, id, connID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		out:    newOutbox(),
		id:     id,
		connID: connID,
		logger: hub.logger.With(zap.String("client_id", id), zap.String("conn_id", connID)),
	}
}

// isKeepAlive reports whether frame is the plain-text "ping" keep-alive
func isKeepAlive(frame []byte) bool {
	s := string(frame)
	return s == "ping" || s == "ping\n"
}

// readPump pumps frames from the websocket connection to the dispatcher.
// It owns the Closed transition of the connection.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.dispatcher.Disconnect(ctx, c.id, c.out)
		c.out.Close()
		c.hub.unregisterClient(c)
		c.conn.Close()
		c.logger.Info("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logger.Debug("ignoring non-text frame", zap.Int("type", messageType))
			continue
		}
		if isKeepAlive(frame) {
			continue
		}
		c.hub.dispatcher.HandleFrame(ctx, c.id, frame)
	}
}

// writePump pumps frames from the outbox to the websocket connection, one
// websocket message per frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.out.ready:
			frames, closed := c.out.drain()
			for _, frame := range frames {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					c.logger.Debug("websocket write failed", zap.Error(err))
					return
				}
			}
			if closed {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// shutdown closes the connection from the server side. The read pump then
// runs the usual disconnect path.
func (c *Client) shutdown() {
	c.closeWith(websocket.CloseGoingAway, "server shutting down")
}

func (c *Client) closeWith(code int, reason string) {
	deadline := time.Now().Add(writeWait)
	c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.conn.Close()
}
