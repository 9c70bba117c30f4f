package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"studio-live/contract"
	"studio-live/domain"
	"studio-live/domain/event"
	"studio-live/errors"
	"studio-live/observability"
	"studio-live/runtime/workers"
)

// Orchestrator wires the registry, the dispatch pipeline and the
// notification bridge together behind one API used by the websocket server
// and (through the Handle) by stateless request handlers. The registry is
// process-local: a broadcast accepted here reaches only connections held by
// this process.
type Orchestrator struct {
	log             *slog.Logger
	supervisor      contract.ISupervisor
	registry        *Registry
	directory       contract.AccessDirectory
	repository      contract.NotificationRepository
	stats           *observability.Stats
	inbox           chan workers.Submission
	mirror          chan event.Envelope
	monitorInterval time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry *Registry, directory contract.AccessDirectory,
	repository contract.NotificationRepository, stats *observability.Stats,
	bufferSize int, monitorInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		log:             log,
		supervisor:      supervisor,
		registry:        registry,
		directory:       directory,
		repository:      repository,
		stats:           stats,
		inbox:           make(chan workers.Submission, bufferSize),
		mirror:          make(chan event.Envelope, bufferSize),
		monitorInterval: monitorInterval,
	}
}

// Start registers the pipeline workers and launches supervision. It returns
// once the workers are handed to the supervisor; Stop triggers the shutdown.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.stats.SetGaugeProvider(o.registry.Counts)

	o.supervisor.Add(
		workers.NewDispatcher(o.log, o.registry, o.inbox, o.mirror, o.stats),
		workers.NewNotificationBridge(o.log, o.directory, o.repository, o.registry, o.mirror, o.stats),
		workers.NewMonitor(o.log, o.stats, o.monitorInterval),
	)

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
	return nil
}

// Stop initiates a graceful shutdown of the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// Connect records an authenticated connection. From this point on the
// connection is eligible for direct notifications, before any room join.
func (o *Orchestrator) Connect(connID uuid.UUID, identity domain.Identity, sink contract.EventSink) error {
	return o.registry.Register(connID, identity, sink)
}

// Disconnect drops the connection from every room and announces the
// departure to the rooms it was in.
func (o *Orchestrator) Disconnect(connID uuid.UUID) {
	identity, ok := o.registry.IdentityOf(connID)
	rooms := o.registry.Drop(connID)
	if !ok {
		return
	}
	for _, room := range rooms {
		o.emitPresence(event.PresenceLeft, room, identity.UserID)
	}
}

// JoinRoom validates room access with the external access-control
// collaborator before touching any registry state, so a denied join leaves
// membership unchanged. The connection's liveness is re-validated after the
// access check returns, because it may have disconnected during the await.
func (o *Orchestrator) JoinRoom(ctx context.Context, connID uuid.UUID, room domain.RoomKey) error {
	identity, ok := o.registry.IdentityOf(connID)
	if !ok {
		return errors.ErrConnectionGone
	}

	allowed, err := o.directory.CanAccess(ctx, identity.UserID, room)
	if err != nil {
		return fmt.Errorf("access check for %s: %w", room, err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s may not view %s", errors.ErrForbidden, identity.UserID, room)
	}

	joined, err := o.registry.Join(connID, room)
	if err != nil {
		return err
	}
	if joined {
		o.emitPresence(event.PresenceJoined, room, identity.UserID)
	}
	return nil
}

func (o *Orchestrator) LeaveRoom(connID uuid.UUID, room domain.RoomKey) {
	identity, ok := o.registry.IdentityOf(connID)
	if !ok {
		return
	}
	if o.registry.Leave(connID, room) {
		o.emitPresence(event.PresenceLeft, room, identity.UserID)
	}
}

// Submit accepts an envelope from a live connection. The server-assigned id
// and timestamp are stamped here, at acceptance, which is the point the
// per-room ordering guarantee is anchored to.
func (o *Orchestrator) Submit(connID uuid.UUID, env event.Envelope) error {
	env.ID = uuid.New()
	env.At = time.Now().UTC()

	select {
	case o.inbox <- workers.Submission{ConnID: connID, Envelope: env}:
		return nil
	default:
		o.stats.IncrDropped()
		o.log.Warn("Submission queue full, dropping envelope", "kind", env.Kind)
		return errors.ErrBackpressure
	}
}

// Inject accepts a system-originated envelope from a stateless handler.
func (o *Orchestrator) Inject(env event.Envelope) error {
	env.SenderID = ""
	return o.Submit(uuid.Nil, env)
}

// Notifications exposes the durable trail for the ordinary query surface.
func (o *Orchestrator) Notifications(userID string, cursor *string) ([]domain.Notification, *string, error) {
	return o.repository.List(userID, cursor)
}

func (o *Orchestrator) MarkNotificationRead(userID string, id uuid.UUID) error {
	return o.repository.MarkRead(userID, id)
}

func (o *Orchestrator) emitPresence(kind event.Kind, room domain.RoomKey, userID string) {
	err := o.Submit(uuid.Nil, event.Envelope{
		Kind: kind,
		Room: room,
		Payload: &event.PresencePayload{
			UserID: userID,
			Room:   room.String(),
		},
	})
	if err != nil {
		o.log.Debug("Presence event dropped", "kind", kind, "room", room)
	}
}
