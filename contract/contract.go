//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"studio-live/domain"
	"studio-live/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need for
// manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery side of one live connection. Consume pushes an
// envelope, Notify pushes a durable notification copy, Reject reports an
// error caused by that connection's own traffic. Implementations must never
// block the caller.
type EventSink interface {
	Consume(ctx context.Context, e event.Envelope) error
	Notify(ctx context.Context, n domain.Notification) error
	Reject(ctx context.Context, cause error) error
}

// Delivery pairs a live connection with its owning identity, as resolved by
// the presence registry at fan-out time.
type Delivery struct {
	ConnID uuid.UUID
	UserID string
	Sink   EventSink
}

// Presence is the dispatcher's and bridge's read view of the registry.
type Presence interface {
	MemberDeliveries(room domain.RoomKey) []Delivery
	UserDeliveries(userID string) []Delivery
	DeliveryOf(connID uuid.UUID) (Delivery, bool)
	IsMember(connID uuid.UUID, room domain.RoomKey) bool
	IdentityOf(connID uuid.UUID) (domain.Identity, bool)
}

// AccessDirectory is the external access-control collaborator backed by the
// relational store. CanAccess answers whether the identity may view the room
// target; ParticipantsOf lists the user ids with an interest in the room
// (project members, task participants), used for notification fan-out.
type AccessDirectory interface {
	CanAccess(ctx context.Context, userID string, room domain.RoomKey) (bool, error)
	ParticipantsOf(ctx context.Context, room domain.RoomKey) ([]string, error)
}

// NotificationRepository owns the durable notification trail.
type NotificationRepository interface {
	Store(n domain.Notification) error
	List(recipient string, cursor *string) ([]domain.Notification, *string, error)
	MarkRead(recipient string, id uuid.UUID) error
}
