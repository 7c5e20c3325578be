package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Sanjana23-is/chess-multiplayer/internal/protocol"
)

var (
	ErrClosed        = errors.New("connection closed")
	ErrSendQueueFull = errors.New("send queue full")
)

// client is one websocket connection. Outbound messages are queued on send
// and written by writeLoop, so Send never waits on the network.
type client struct {
	conn *websocket.Conn
	cfg  Config

	mu     sync.RWMutex
	closed bool
	send   chan protocol.Message
}

func newClient(conn *websocket.Conn, cfg Config) *client {
	return &client{
		conn: conn,
		cfg:  cfg,
		send: make(chan protocol.Message, cfg.SendBuffer),
	}
}

func (c *client) Send(msg protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// close stops the writer once it has drained the queue.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) readLoop(handle func([]byte), logger *zap.Logger) {
	c.conn.SetReadLimit(c.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("unexpected close", zap.Error(err))
			} else {
				logger.Debug("read stopped", zap.Error(err))
			}
			return
		}
		handle(raw)
	}
}

func (c *client) writeLoop(logger *zap.Logger) {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Warn("write error", zap.String("type", msg.Type), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

// shutdown asks the peer to go away and drops the connection; the read loop
// then ends and runs the normal disconnect path.
func (c *client) shutdown() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteWait))
	_ = c.conn.Close()
}
