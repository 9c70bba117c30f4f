package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"studio-live/domain"
)

func TestCatalogue_Every_Kind_Has_A_Policy_And_A_Payload(t *testing.T) {
	req := require.New(t)

	// The routing and mirror decisions are total over the catalogue: every
	// kind resolves a policy and a typed payload factory.
	for _, kind := range Kinds() {
		policy, ok := PolicyFor(kind)
		req.True(ok, "kind=%s", kind)

		payload, err := DecodePayload(kind, nil)
		req.NoError(err, "kind=%s", kind)
		req.NotNil(payload, "kind=%s", kind)

		// Direct kinds never carry room restrictions
		if policy.Addressing == ToUser {
			req.Empty(policy.RoomKinds, "kind=%s", kind)
		}
	}
}

func TestCatalogue_Unknown_Kind(t *testing.T) {
	req := require.New(t)

	_, ok := PolicyFor("task.exploded")
	req.False(ok)
}

func TestCatalogue_Direction_Of_System_Kinds(t *testing.T) {
	req := require.New(t)

	for _, kind := range []Kind{PresenceJoined, PresenceLeft, FriendRequestReceived, FriendRequestAccepted} {
		policy, ok := PolicyFor(kind)
		req.True(ok)
		req.Equal(FromSystem, policy.Direction, "kind=%s", kind)
	}
}

func TestCatalogue_Ephemeral_Kinds_Are_Never_Mirrored(t *testing.T) {
	req := require.New(t)

	for _, kind := range []Kind{CursorMoved, TypingStarted, TypingStopped, TaskPositionChanged} {
		policy, ok := PolicyFor(kind)
		req.True(ok)
		req.False(policy.Mirrored, "kind=%s", kind)
	}
}

func TestPolicy_AllowsRoomKind(t *testing.T) {
	req := require.New(t)

	policy, ok := PolicyFor(CommentCreated)
	req.True(ok)

	// Comments live on tasks and scenes, not on project boards
	req.True(policy.allowsRoomKind(domain.RoomTask))
	req.True(policy.allowsRoomKind(domain.RoomScene))
	req.False(policy.allowsRoomKind(domain.RoomProject))

	// An empty restriction admits any room kind
	req.True(Policy{}.allowsRoomKind(domain.RoomProject))
}
