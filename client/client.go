// Package client is a small websocket client for the studio-live core, used
// by the tester CLI and the e2e scenarios.
package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"studio-live/domain"
	"studio-live/domain/event"
)

// ServerFrame is the client-side view of every frame the server can push.
// Payload stays raw: consumers decode it with event.DecodePayload when they
// care about the variant.
type ServerFrame struct {
	Type         string               `json:"type"`
	Room         string               `json:"room,omitempty"`
	Kind         event.Kind           `json:"kind,omitempty"`
	Payload      json.RawMessage      `json:"payload,omitempty"`
	SenderID     string               `json:"senderId,omitempty"`
	Timestamp    time.Time            `json:"timestamp,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
	Code         string               `json:"code,omitempty"`
	Message      string               `json:"message,omitempty"`
}

type clientFrame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Kind    event.Kind      `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Client struct {
	conn   *websocket.Conn
	Frames chan ServerFrame
	done   chan struct{}
}

// Dial connects to the core, presenting the credential as the out-of-band
// token query parameter, and starts the read loop.
func Dial(baseURL, token string, buffer int) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}

	c := &Client{
		conn:   conn,
		Frames: make(chan ServerFrame, buffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.Frames)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame ServerFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}
		select {
		case c.Frames <- frame:
		case <-c.done:
			return
		}
	}
}

func (c *Client) Join(room domain.RoomKey) error {
	return c.conn.WriteJSON(clientFrame{Type: "join", Room: room.String()})
}

func (c *Client) Leave(room domain.RoomKey) error {
	return c.conn.WriteJSON(clientFrame{Type: "leave", Room: room.String()})
}

// Emit sends a client-originated envelope. The payload is any JSON-shaped
// value matching the kind's variant.
func (c *Client) Emit(kind event.Kind, room domain.RoomKey, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(clientFrame{Type: "event", Kind: kind, Room: room.String(), Payload: raw})
}

// Next waits for the next frame or times out.
func (c *Client) Next(timeout time.Duration) (ServerFrame, error) {
	select {
	case frame, ok := <-c.Frames:
		if !ok {
			return ServerFrame{}, fmt.Errorf("connection closed")
		}
		return frame, nil
	case <-time.After(timeout):
		return ServerFrame{}, fmt.Errorf("no frame within %s", timeout)
	}
}

func (c *Client) Close() error {
	close(c.done)
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
