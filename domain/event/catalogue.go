package event

import "studio-live/domain"

type Direction int

const (
	// FromClient events are emitted by live connections.
	FromClient Direction = iota
	// FromSystem events may only be injected by the process itself.
	FromSystem
)

type Addressing int

const (
	ToRoom Addressing = iota
	ToUser
)

// Policy declares, for one event kind, how it is routed and who may emit it.
// The mirror decision is total: every kind answers yes or no here, nowhere
// else.
type Policy struct {
	Direction  Direction
	Addressing Addressing
	// RoomKinds restricts which room kinds may carry the event.
	// Empty means any room kind. Unused for direct addressing.
	RoomKinds []domain.RoomKind
	// AdminOnly requires the sender to hold the admin flag.
	AdminOnly bool
	// IncludeSender controls echo: true delivers to the originating
	// connection too, keeping the sender's other tabs in sync. False
	// delivers to everyone else only (typing indicators, cursors).
	IncludeSender bool
	Mirrored      bool
}

func (p Policy) allowsRoomKind(kind domain.RoomKind) bool {
	if len(p.RoomKinds) == 0 {
		return true
	}
	for _, k := range p.RoomKinds {
		if k == kind {
			return true
		}
	}
	return false
}

var catalogue = map[Kind]Policy{
	TaskCreated: {
		Direction:     FromClient,
		Addressing:    ToRoom,
		RoomKinds:     []domain.RoomKind{domain.RoomProject},
		IncludeSender: true,
		Mirrored:      true,
	},
	TaskStatusChanged: {
		Direction:     FromClient,
		Addressing:    ToRoom,
		RoomKinds:     []domain.RoomKind{domain.RoomProject},
		IncludeSender: true,
		Mirrored:      true,
	},
	TaskPositionChanged: {
		Direction:     FromClient,
		Addressing:    ToRoom,
		RoomKinds:     []domain.RoomKind{domain.RoomProject},
		IncludeSender: true,
		Mirrored:      false,
	},
	CommentCreated: {
		Direction:     FromClient,
		Addressing:    ToRoom,
		RoomKinds:     []domain.RoomKind{domain.RoomTask, domain.RoomScene},
		IncludeSender: true,
		Mirrored:      true,
	},
	ImageUploaded: {
		Direction:     FromClient,
		Addressing:    ToRoom,
		RoomKinds:     []domain.RoomKind{domain.RoomScene},
		IncludeSender: true,
		Mirrored:      true,
	},
	CursorMoved: {
		Direction:     FromClient,
		Addressing:    ToRoom,
		RoomKinds:     []domain.RoomKind{domain.RoomProject},
		IncludeSender: false,
		Mirrored:      false,
	},
	TypingStarted: {
		Direction:     FromClient,
		Addressing:    ToRoom,
		RoomKinds:     []domain.RoomKind{domain.RoomTask},
		IncludeSender: false,
		Mirrored:      false,
	},
	TypingStopped: {
		Direction:     FromClient,
		Addressing:    ToRoom,
		RoomKinds:     []domain.RoomKind{domain.RoomTask},
		IncludeSender: false,
		Mirrored:      false,
	},
	PresenceJoined: {
		Direction:     FromSystem,
		Addressing:    ToRoom,
		IncludeSender: false,
		Mirrored:      false,
	},
	PresenceLeft: {
		Direction:     FromSystem,
		Addressing:    ToRoom,
		IncludeSender: false,
		Mirrored:      false,
	},
	FriendRequestReceived: {
		Direction:  FromSystem,
		Addressing: ToUser,
		Mirrored:   true,
	},
	FriendRequestAccepted: {
		Direction:  FromSystem,
		Addressing: ToUser,
		Mirrored:   true,
	},
}

// PolicyFor resolves the catalogue row for a kind.
func PolicyFor(kind Kind) (Policy, bool) {
	p, ok := catalogue[kind]
	return p, ok
}

// Kinds lists every catalogued kind. Order is unspecified.
func Kinds() []Kind {
	res := make([]Kind, 0, len(catalogue))
	for k := range catalogue {
		res = append(res, k)
	}
	return res
}
