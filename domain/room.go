// Package domain contains core concepts of the collaboration system.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"strings"

	"studio-live/errors"
)

type RoomKind string

const (
	RoomProject RoomKind = "project"
	RoomScene   RoomKind = "scene"
	RoomTask    RoomKind = "task"
)

// RoomKey identifies a logical broadcast group. Keys are string-composable
// ("project:42") and stable across process restarts so reconnecting clients
// can rejoin the same logical rooms.
type RoomKey struct {
	Kind RoomKind
	ID   string
}

func ProjectRoom(id string) RoomKey { return RoomKey{Kind: RoomProject, ID: id} }
func SceneRoom(id string) RoomKey   { return RoomKey{Kind: RoomScene, ID: id} }
func TaskRoom(id string) RoomKey    { return RoomKey{Kind: RoomTask, ID: id} }

func (k RoomKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

func (k RoomKey) IsZero() bool {
	return k.Kind == "" && k.ID == ""
}

// ParseRoomKey parses a "kind:id" composite key, rejecting unknown kinds and
// empty ids.
func ParseRoomKey(s string) (RoomKey, error) {
	kind, id, found := strings.Cut(s, ":")
	if !found || id == "" {
		return RoomKey{}, fmt.Errorf("%w: %q", errors.ErrInvalidRoomKey, s)
	}
	switch RoomKind(kind) {
	case RoomProject, RoomScene, RoomTask:
		return RoomKey{Kind: RoomKind(kind), ID: id}, nil
	default:
		return RoomKey{}, fmt.Errorf("%w: unknown kind %q", errors.ErrInvalidRoomKey, kind)
	}
}
