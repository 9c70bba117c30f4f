package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"studio-live/domain"
	"studio-live/errors"
)

func TestDecodePayload(t *testing.T) {
	req := require.New(t)

	// When decoding a well-formed comment payload
	payload, err := DecodePayload(CommentCreated, json.RawMessage(`{"commentId":"c1","body":"nice work"}`))
	req.NoError(err)
	comment := payload.(*CommentPayload)
	req.Equal("c1", comment.CommentID)
	req.Equal("nice work", comment.Body)

	// Then an unknown kind is refused
	_, err = DecodePayload("task.exploded", json.RawMessage(`{}`))
	req.ErrorIs(err, errors.ErrUnknownKind)

	// And non-JSON bytes are refused
	_, err = DecodePayload(CommentCreated, json.RawMessage(`{"body":`))
	req.ErrorIs(err, errors.ErrMalformedPayload)
}

func TestValidateEnvelope_Accepts_A_Valid_Room_Event(t *testing.T) {
	req := require.New(t)

	policy, err := ValidateEnvelope(Envelope{
		Kind:     TaskCreated,
		SenderID: "alice",
		Room:     domain.ProjectRoom("p1"),
		Payload:  &TaskCreatedPayload{TaskID: "t1", Title: "Paint the sky"},
	})

	req.NoError(err)
	req.Equal(ToRoom, policy.Addressing)
	req.True(policy.Mirrored)
}

func TestValidateEnvelope_Addressing_Is_Room_Xor_User(t *testing.T) {
	req := require.New(t)

	// Neither target set
	_, err := ValidateEnvelope(Envelope{
		Kind:    TaskCreated,
		Payload: &TaskCreatedPayload{TaskID: "t1", Title: "x"},
	})
	req.ErrorIs(err, errors.ErrBadAddressing)

	// Both targets set
	_, err = ValidateEnvelope(Envelope{
		Kind:         TaskCreated,
		Room:         domain.ProjectRoom("p1"),
		TargetUserID: "bob",
		Payload:      &TaskCreatedPayload{TaskID: "t1", Title: "x"},
	})
	req.ErrorIs(err, errors.ErrBadAddressing)

	// Room target on a direct kind
	_, err = ValidateEnvelope(Envelope{
		Kind:    FriendRequestReceived,
		Room:    domain.ProjectRoom("p1"),
		Payload: &FriendRequestPayload{RequestID: "r1", FromUserID: "alice"},
	})
	req.ErrorIs(err, errors.ErrBadAddressing)
}

func TestValidateEnvelope_Room_Kind_Must_Match_The_Catalogue(t *testing.T) {
	req := require.New(t)

	// Typing indicators belong to task rooms only
	_, err := ValidateEnvelope(Envelope{
		Kind:     TypingStarted,
		SenderID: "alice",
		Room:     domain.SceneRoom("s1"),
		Payload:  &TypingPayload{Started: true},
	})
	req.ErrorIs(err, errors.ErrRoomKindMismatch)
}

func TestValidateEnvelope_Schema_Violations(t *testing.T) {
	req := require.New(t)

	cases := []struct {
		name string
		env  Envelope
	}{
		{
			name: "missing payload",
			env: Envelope{
				Kind: TaskCreated,
				Room: domain.ProjectRoom("p1"),
			},
		},
		{
			name: "missing required field",
			env: Envelope{
				Kind:    TaskCreated,
				Room:    domain.ProjectRoom("p1"),
				Payload: &TaskCreatedPayload{Title: "no task id"},
			},
		},
		{
			name: "status outside the enum",
			env: Envelope{
				Kind:    TaskStatusChanged,
				Room:    domain.ProjectRoom("p1"),
				Payload: &TaskStatusPayload{TaskID: "t1", Status: "abandoned"},
			},
		},
		{
			name: "image url not a url",
			env: Envelope{
				Kind:    ImageUploaded,
				Room:    domain.SceneRoom("s1"),
				Payload: &ImagePayload{ImageID: "i1", URL: "not-a-url"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateEnvelope(tc.env)
			req.ErrorIs(err, errors.ErrMalformedPayload)
		})
	}
}

func TestEnvelope_Summary(t *testing.T) {
	req := require.New(t)

	req.Equal(`Task "Paint the sky" was created`, Envelope{
		Kind:    TaskCreated,
		Payload: &TaskCreatedPayload{TaskID: "t1", Title: "Paint the sky"},
	}.Summary())

	req.Equal("Task moved to done", Envelope{
		Kind:    TaskStatusChanged,
		Payload: &TaskStatusPayload{TaskID: "t1", Status: "done"},
	}.Summary())

	req.Equal("Alice accepted your friend request", Envelope{
		Kind:    FriendRequestAccepted,
		Payload: &FriendRequestPayload{RequestID: "r1", FromUserID: "u1", FromName: "Alice"},
	}.Summary())

	// A long comment body is cut for the notification line
	long := make([]rune, 120)
	for i := range long {
		long[i] = 'a'
	}
	summary := Envelope{
		Kind:    CommentCreated,
		Payload: &CommentPayload{CommentID: "c1", Body: string(long)},
	}.Summary()
	req.Len([]rune(summary), len("New comment: ")+81)

	// Kinds without a dedicated line fall back to the kind itself
	req.Equal("cursor.move", Envelope{Kind: CursorMoved, Payload: &CursorPayload{}}.Summary())
}
