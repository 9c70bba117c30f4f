package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrUnauthenticated   = fmt.Errorf("connection is not authenticated")
	ErrForbidden         = fmt.Errorf("operation not allowed for this identity")
	ErrUnknownKind       = fmt.Errorf("unknown event kind")
	ErrMalformedPayload  = fmt.Errorf("malformed event payload")
	ErrBadAddressing     = fmt.Errorf("envelope must target exactly one of room or user")
	ErrRoomKindMismatch  = fmt.Errorf("event kind is not allowed in this room kind")
	ErrNotJoined         = fmt.Errorf("sender is not a member of the target room")
	ErrConnectionGone    = fmt.Errorf("connection is no longer registered")
	ErrAlreadyRegistered = fmt.Errorf("connection is already registered")
	ErrInvalidRoomKey    = fmt.Errorf("invalid room key")
	ErrInvalidToken      = fmt.Errorf("invalid or expired token")
	ErrNotFound          = fmt.Errorf("record not found")
	ErrCoreUnavailable   = fmt.Errorf("live core not initialized")
	ErrBackpressure      = fmt.Errorf("channel full, message dropped")
)

// WireCode maps an error to the stable code sent back to the offending
// connection. Only that connection ever sees the code.
func WireCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotJoined):
		return "forbidden"
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, ErrMalformedPayload), errors.Is(err, ErrBadAddressing),
		errors.Is(err, ErrRoomKindMismatch), errors.Is(err, ErrInvalidRoomKey):
		return "bad_request"
	case errors.Is(err, ErrBackpressure):
		return "overloaded"
	default:
		return "internal"
	}
}
