package ws

import (
	"context"
	"log/slog"

	"studio-live/domain"
	"studio-live/domain/event"
	"studio-live/errors"
	"studio-live/transport"
)

// LiveSink adapts one websocket connection to the fan-out contract. All
// methods are non-blocking; a full outbound queue drops the frame for this
// connection only.
type LiveSink struct {
	conn *transport.Connection
	log  *slog.Logger
}

func NewLiveSink(conn *transport.Connection, log *slog.Logger) LiveSink {
	return LiveSink{conn: conn, log: log}
}

func (s LiveSink) Consume(_ context.Context, e event.Envelope) error {
	frame := EventFrame{
		Type:      frameEvent,
		Kind:      e.Kind,
		Payload:   e.Payload,
		SenderID:  e.SenderID,
		Timestamp: e.At,
	}
	if !e.Room.IsZero() {
		frame.Room = e.Room.String()
	}
	return s.conn.Push(frame)
}

func (s LiveSink) Notify(_ context.Context, n domain.Notification) error {
	return s.conn.Push(NotificationFrame{Type: frameNotification, Notification: n})
}

func (s LiveSink) Reject(_ context.Context, cause error) error {
	return s.conn.Push(ErrorFrame{
		Type:    frameError,
		Code:    errors.WireCode(cause),
		Message: cause.Error(),
	})
}
