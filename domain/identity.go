package domain

// Identity is attached to a connection once authentication succeeds.
// A zero Identity means the connection is still unauthenticated.
type Identity struct {
	UserID string
	Admin  bool
}

func (i Identity) IsZero() bool {
	return i.UserID == ""
}
