package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"studio-live/contract"
	"studio-live/domain/event"
	"studio-live/errors"
	"studio-live/observability"
)

// Submission is an accepted envelope paired with the connection that
// submitted it. A zero ConnID marks a system-originated injection.
type Submission struct {
	ConnID   uuid.UUID
	Envelope event.Envelope
}

func (s Submission) FromClient() bool {
	return s.ConnID != uuid.Nil
}

// Dispatcher consumes the single submission queue and fans envelopes out to
// live connections. One goroutine drains one channel, so envelopes from the
// same origin to the same room are delivered in acceptance order; no
// ordering is promised across rooms.
type Dispatcher struct {
	log      *slog.Logger
	presence contract.Presence
	inbox    <-chan Submission
	mirror   chan<- event.Envelope
	stats    *observability.Stats
}

func NewDispatcher(log *slog.Logger, presence contract.Presence,
	inbox <-chan Submission, mirror chan<- event.Envelope,
	stats *observability.Stats) *Dispatcher {
	return &Dispatcher{
		log:      log.With(slog.String("component", "dispatcher")),
		presence: presence,
		inbox:    inbox,
		mirror:   mirror,
		stats:    stats,
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case sub := <-d.inbox:
			d.process(ctx, sub)
		case <-ctx.Done():
			d.log.Debug("Context done, stopping dispatch")
			return nil
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, sub Submission) {
	env := sub.Envelope

	policy, err := event.ValidateEnvelope(env)
	if err != nil {
		d.reject(ctx, sub, err)
		return
	}

	// Authorization is re-checked at dispatch time, not just at join time:
	// membership may have changed since the connection joined.
	if sub.FromClient() {
		if err := d.authorizeClient(sub, policy); err != nil {
			d.reject(ctx, sub, err)
			return
		}
	}

	var targets []contract.Delivery
	switch policy.Addressing {
	case event.ToRoom:
		targets = d.presence.MemberDeliveries(env.Room)
	case event.ToUser:
		targets = d.presence.UserDeliveries(env.TargetUserID)
	}

	delivered := 0
	for _, target := range targets {
		if policy.Addressing == event.ToRoom && !policy.IncludeSender && target.ConnID == sub.ConnID {
			continue
		}
		if err := target.Sink.Consume(ctx, env); err != nil {
			// One broken pipe must not abort the broadcast loop.
			d.log.Warn("Delivery failed, skipping connection",
				"conn_id", target.ConnID, "kind", env.Kind, "error", err)
			continue
		}
		delivered++
	}
	d.stats.IncrDispatched()
	d.log.Debug("Envelope dispatched", "kind", env.Kind, "targets", delivered)

	if policy.Mirrored {
		select {
		case d.mirror <- env:
		default:
			// Live dispatch never blocks on the bridge.
			d.stats.IncrDropped()
			d.log.Warn("Mirror channel full, notification lost", "kind", env.Kind)
		}
	}
}

func (d *Dispatcher) authorizeClient(sub Submission, policy event.Policy) error {
	env := sub.Envelope

	if policy.Direction == event.FromSystem {
		return fmt.Errorf("%w: %q is system-originated", errors.ErrForbidden, env.Kind)
	}

	identity, ok := d.presence.IdentityOf(sub.ConnID)
	if !ok {
		return errors.ErrConnectionGone
	}
	if identity.UserID != env.SenderID {
		return fmt.Errorf("%w: sender mismatch", errors.ErrForbidden)
	}
	if policy.AdminOnly && !identity.Admin {
		return fmt.Errorf("%w: %q requires admin", errors.ErrForbidden, env.Kind)
	}
	if policy.Addressing == event.ToRoom && !d.presence.IsMember(sub.ConnID, env.Room) {
		return fmt.Errorf("%w: %s", errors.ErrNotJoined, env.Room)
	}
	return nil
}

// reject surfaces the failure to the offending connection only; malformed or
// unauthorized envelopes are never partially broadcast.
func (d *Dispatcher) reject(ctx context.Context, sub Submission, cause error) {
	d.stats.IncrRejected()
	if !sub.FromClient() {
		d.log.Warn("Rejected system envelope", "kind", sub.Envelope.Kind, "error", cause)
		return
	}
	delivery, ok := d.presence.DeliveryOf(sub.ConnID)
	if !ok {
		d.log.Debug("Origin gone before rejection could be delivered", "conn_id", sub.ConnID)
		return
	}
	if err := delivery.Sink.Reject(ctx, cause); err != nil {
		d.log.Debug("Failed to deliver rejection", "conn_id", sub.ConnID, "error", err)
	}
}
