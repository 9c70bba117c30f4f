package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the durable per-user record synthesized from a mirrored
// live event. The real-time core only ever constructs it and flips the read
// flag; everything else about its lifecycle belongs to the query surface.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Recipient string    `json:"recipient"`
	Kind      string    `json:"kind"`
	Summary   string    `json:"summary"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
