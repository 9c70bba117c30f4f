// Package transport wraps a single websocket connection behind a small,
// thread-safe surface: a buffered outbound queue drained by a write pump and
// an inbound read pump feeding a handler callback.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"studio-live/errors"
)

// MessageHandler is invoked for every inbound frame.
type MessageHandler func(ctx context.Context, connID uuid.UUID, msg []byte)

// CloseHandler is invoked exactly once when the connection dies.
type CloseHandler func(connID uuid.UUID, err error)

type Config struct {
	SendBuffer     int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

// Connection is one physical bidirectional channel.
type Connection struct {
	id   uuid.UUID
	conn *websocket.Conn
	cfg  Config
	send chan []byte

	onMessage MessageHandler
	onClose   CloseHandler

	done      chan struct{}
	closeOnce sync.Once

	log *slog.Logger
}

func NewConnection(conn *websocket.Conn, cfg Config,
	onMessage MessageHandler, onClose CloseHandler, log *slog.Logger) *Connection {
	id := uuid.New()
	return &Connection{
		id:        id,
		conn:      conn,
		cfg:       cfg,
		send:      make(chan []byte, cfg.SendBuffer),
		onMessage: onMessage,
		onClose:   onClose,
		done:      make(chan struct{}),
		log:       log.With(slog.String("conn_id", id.String())),
	}
}

func (c *Connection) ID() uuid.UUID { return c.id }

// Run starts the write pump and blocks in the read pump until the connection
// closes, mirroring the lifetime of the HTTP handler goroutine that owns it.
func (c *Connection) Run(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

// Push marshals v and queues it for delivery. It never blocks: when the
// outbound queue is full the frame is dropped and ErrBackpressure returned,
// so one slow socket cannot stall a broadcast loop.
func (c *Connection) Push(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal outbound frame: %w", err)
	}
	select {
	case <-c.done:
		return errors.ErrConnectionGone
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errors.ErrBackpressure
	}
}

// Close tears the connection down exactly once and fires the close handler.
func (c *Connection) Close(cause error) {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c.id, cause)
		}
	})
}

func (c *Connection) readPump(ctx context.Context) {
	var readErr error
	defer func() {
		c.Close(readErr)
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Read pump terminated", "error", err)
			}
			readErr = err
			return
		}
		c.onMessage(ctx, c.id, msg)
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close(nil)
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("Write pump terminated", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ctx.Done():
			return
		}
	}
}
