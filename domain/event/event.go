package event

import (
	"time"

	"github.com/google/uuid"

	"studio-live/domain"
)

// Kind names one entry of the closed event catalogue.
type Kind string

const (
	TaskCreated           Kind = "task.created"
	TaskStatusChanged     Kind = "task.status_changed"
	TaskPositionChanged   Kind = "task.position_changed"
	CommentCreated        Kind = "comment.created"
	ImageUploaded         Kind = "image.uploaded"
	CursorMoved           Kind = "cursor.move"
	TypingStarted         Kind = "typing.start"
	TypingStopped         Kind = "typing.stop"
	PresenceJoined        Kind = "presence.joined"
	PresenceLeft          Kind = "presence.left"
	FriendRequestReceived Kind = "friend_request.received"
	FriendRequestAccepted Kind = "friend_request.accepted"
)

// Envelope is the addressed, typed unit of real-time traffic. Exactly one of
// Room and TargetUserID is set; the dispatcher rejects anything else.
type Envelope struct {
	ID           uuid.UUID
	Kind         Kind
	SenderID     string // empty for system-originated envelopes
	Room         domain.RoomKey
	TargetUserID string
	Payload      Payload
	At           time.Time // server-assigned at acceptance
}

// System reports whether the envelope was injected by the process itself
// (a CRUD handler or the presence machinery) rather than a live client.
func (e Envelope) System() bool {
	return e.SenderID == ""
}
