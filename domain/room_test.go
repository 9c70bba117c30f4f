package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"studio-live/errors"
)

func TestRoomKey_String_RoundTrip(t *testing.T) {
	req := require.New(t)

	for _, key := range []RoomKey{
		ProjectRoom("42"),
		SceneRoom("living-room"),
		TaskRoom("a9f0"),
	} {
		parsed, err := ParseRoomKey(key.String())
		req.NoError(err)
		req.Equal(key, parsed)
	}
}

func TestParseRoomKey_Rejects_Malformed_Keys(t *testing.T) {
	req := require.New(t)

	for _, raw := range []string{
		"",
		"project",
		"project:",
		":42",
		"galaxy:42",
		"Project:42",
	} {
		_, err := ParseRoomKey(raw)
		req.ErrorIs(err, errors.ErrInvalidRoomKey, "raw=%q", raw)
	}
}

func TestParseRoomKey_Id_May_Contain_Separator(t *testing.T) {
	req := require.New(t)

	// Only the first separator splits kind from id
	key, err := ParseRoomKey("task:a:b")
	req.NoError(err)
	req.Equal(RoomTask, key.Kind)
	req.Equal("a:b", key.ID)
}

func TestRoomKey_IsZero(t *testing.T) {
	req := require.New(t)

	req.True(RoomKey{}.IsZero())
	req.False(ProjectRoom("1").IsZero())
}
