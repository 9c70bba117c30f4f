package event

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"studio-live/errors"
)

var validate = validator.New()

// Payload is the kind-specific structured data carried by an envelope.
// Variants are closed: one type per catalogue entry, validated at the
// dispatcher boundary instead of being trusted as opaque JSON.
type Payload interface {
	payloadKind() Kind
}

type TaskCreatedPayload struct {
	TaskID string `json:"taskId" validate:"required"`
	Title  string `json:"title" validate:"required,max=200"`
}

func (TaskCreatedPayload) payloadKind() Kind { return TaskCreated }

type TaskStatusPayload struct {
	TaskID string `json:"taskId" validate:"required"`
	Status string `json:"status" validate:"required,oneof=todo doing review done"`
}

func (TaskStatusPayload) payloadKind() Kind { return TaskStatusChanged }

type TaskPositionPayload struct {
	TaskID   string `json:"taskId" validate:"required"`
	ListID   string `json:"listId" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}

func (TaskPositionPayload) payloadKind() Kind { return TaskPositionChanged }

type CommentPayload struct {
	CommentID string `json:"commentId" validate:"required"`
	Body      string `json:"body" validate:"required,max=2000"`
}

func (CommentPayload) payloadKind() Kind { return CommentCreated }

type ImagePayload struct {
	ImageID string `json:"imageId" validate:"required"`
	URL     string `json:"url" validate:"required,url"`
	Name    string `json:"name" validate:"max=255"`
}

func (ImagePayload) payloadKind() Kind { return ImageUploaded }

type CursorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (CursorPayload) payloadKind() Kind { return CursorMoved }

type TypingPayload struct {
	Started bool `json:"started"`
}

func (p TypingPayload) payloadKind() Kind {
	if p.Started {
		return TypingStarted
	}
	return TypingStopped
}

type PresencePayload struct {
	UserID string `json:"userId" validate:"required"`
	Room   string `json:"room" validate:"required"`
}

func (PresencePayload) payloadKind() Kind { return PresenceJoined }

type FriendRequestPayload struct {
	RequestID  string `json:"requestId" validate:"required"`
	FromUserID string `json:"fromUserId" validate:"required"`
	FromName   string `json:"fromName" validate:"max=120"`
}

func (FriendRequestPayload) payloadKind() Kind { return FriendRequestReceived }

var factories = map[Kind]func() Payload{
	TaskCreated:           func() Payload { return &TaskCreatedPayload{} },
	TaskStatusChanged:     func() Payload { return &TaskStatusPayload{} },
	TaskPositionChanged:   func() Payload { return &TaskPositionPayload{} },
	CommentCreated:        func() Payload { return &CommentPayload{} },
	ImageUploaded:         func() Payload { return &ImagePayload{} },
	CursorMoved:           func() Payload { return &CursorPayload{} },
	TypingStarted:         func() Payload { return &TypingPayload{Started: true} },
	TypingStopped:         func() Payload { return &TypingPayload{} },
	PresenceJoined:        func() Payload { return &PresencePayload{} },
	PresenceLeft:          func() Payload { return &PresencePayload{} },
	FriendRequestReceived: func() Payload { return &FriendRequestPayload{} },
	FriendRequestAccepted: func() Payload { return &FriendRequestPayload{} },
}

// DecodePayload turns raw JSON into the typed variant for the kind.
// It only decodes; schema validation happens in ValidateEnvelope so that
// CRUD-injected envelopes built from typed values go through the same check.
func DecodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	factory, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownKind, kind)
	}
	p := factory()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
		}
	}
	return p, nil
}

// ValidateEnvelope checks an envelope against its kind's catalogue row:
// the kind exists, addressing is room XOR user and matches the row, the room
// kind is allowed, and the typed payload satisfies its schema.
func ValidateEnvelope(e Envelope) (Policy, error) {
	policy, ok := PolicyFor(e.Kind)
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", errors.ErrUnknownKind, e.Kind)
	}

	hasRoom := !e.Room.IsZero()
	hasUser := e.TargetUserID != ""
	if hasRoom == hasUser {
		return Policy{}, errors.ErrBadAddressing
	}
	switch policy.Addressing {
	case ToRoom:
		if !hasRoom {
			return Policy{}, fmt.Errorf("%w: %q is room-addressed", errors.ErrBadAddressing, e.Kind)
		}
		if !policy.allowsRoomKind(e.Room.Kind) {
			return Policy{}, fmt.Errorf("%w: %q in %q room", errors.ErrRoomKindMismatch, e.Kind, e.Room.Kind)
		}
	case ToUser:
		if !hasUser {
			return Policy{}, fmt.Errorf("%w: %q is direct-addressed", errors.ErrBadAddressing, e.Kind)
		}
	}

	if e.Payload == nil {
		return Policy{}, fmt.Errorf("%w: missing payload", errors.ErrMalformedPayload)
	}
	if err := validate.Struct(e.Payload); err != nil {
		return Policy{}, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	return policy, nil
}

// Summary renders the human-readable line stored on durable notifications.
func (e Envelope) Summary() string {
	switch p := e.Payload.(type) {
	case *TaskCreatedPayload:
		return fmt.Sprintf("Task %q was created", p.Title)
	case *TaskStatusPayload:
		return fmt.Sprintf("Task moved to %s", p.Status)
	case *CommentPayload:
		return "New comment: " + truncate(p.Body, 80)
	case *ImagePayload:
		if p.Name != "" {
			return fmt.Sprintf("Image %q was uploaded", p.Name)
		}
		return "An image was uploaded"
	case *FriendRequestPayload:
		switch e.Kind {
		case FriendRequestAccepted:
			return fmt.Sprintf("%s accepted your friend request", displayName(p))
		default:
			return fmt.Sprintf("%s sent you a friend request", displayName(p))
		}
	default:
		return string(e.Kind)
	}
}

func displayName(p *FriendRequestPayload) string {
	if p.FromName != "" {
		return p.FromName
	}
	return p.FromUserID
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
