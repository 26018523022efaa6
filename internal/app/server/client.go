package server

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/checkmate-live/checkmate/pkg/logging"
)

// wsConn is the slice of *websocket.Conn the server relies on. Tests
// substitute an in-memory recorder.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// client is one live connection. It is tagged with an identity once
// authenticated and a game id once attached to a session.
type client struct {
	conn wsConn

	mu       sync.Mutex
	identity string
	gameId   string
	closed   bool
}

func newClient(conn wsConn) *client {
	return &client{conn: conn}
}

func (c *client) setIdentity(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
}

func (c *client) getIdentity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *client) setGameId(gameId string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameId = gameId
}

func (c *client) getGameId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameId
}

// send writes one envelope to the connection. Write failures are logged
// and otherwise ignored: a broken connection surfaces in the read loop.
func (c *client) send(msgType string, data interface{}) {
	payload, err := json.Marshal(outboundMessage{Type: msgType, Data: data})
	if err != nil {
		logging.Error("failed to marshal message", zap.String("type", msgType), zap.Error(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		logging.Error("failed to write message",
			zap.String("type", msgType),
			zap.String("identity", c.identity),
			zap.Error(err),
		)
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}
