package ws

import (
	"encoding/json"
	"time"

	"studio-live/domain"
	"studio-live/domain/event"
)

const (
	frameJoin         = "join"
	frameLeave        = "leave"
	frameEvent        = "event"
	frameJoined       = "joined"
	frameLeft         = "left"
	frameNotification = "notification"
	frameError        = "error"
)

// ClientFrame is the inbound message shape. Payload stays raw until the kind
// is known; the typed variant is decoded at the boundary and validated by the
// dispatcher.
type ClientFrame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Kind    event.Kind      `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EventFrame is the outbound push shape: {kind, payload, senderId?, timestamp}.
type EventFrame struct {
	Type      string        `json:"type"`
	Kind      event.Kind    `json:"kind"`
	Room      string        `json:"room,omitempty"`
	Payload   event.Payload `json:"payload"`
	SenderID  string        `json:"senderId,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type NotificationFrame struct {
	Type         string              `json:"type"`
	Notification domain.Notification `json:"notification"`
}

type AckFrame struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
