package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"studio-live/contract"
	"studio-live/domain"
	"studio-live/domain/event"
	"studio-live/observability"
)

// NotificationBridge converts mirrored envelopes into durable per-user
// records and opportunistically pushes them to the recipient's live
// connections, independent of room membership. Persistence succeeds (or
// fails, non-fatally) whether or not the recipient is connected.
type NotificationBridge struct {
	log        *slog.Logger
	directory  contract.AccessDirectory
	repository contract.NotificationRepository
	presence   contract.Presence
	mirror     <-chan event.Envelope
	stats      *observability.Stats
}

func NewNotificationBridge(log *slog.Logger, directory contract.AccessDirectory,
	repository contract.NotificationRepository, presence contract.Presence,
	mirror <-chan event.Envelope, stats *observability.Stats) *NotificationBridge {
	return &NotificationBridge{
		log:        log.With(slog.String("component", "notification_bridge")),
		directory:  directory,
		repository: repository,
		presence:   presence,
		mirror:     mirror,
		stats:      stats,
	}
}

func (b *NotificationBridge) Run(ctx context.Context) error {
	for {
		select {
		case env := <-b.mirror:
			// An envelope taken from the mirror queue is processed to
			// completion: the durable record must still be written even
			// if the recipient disconnects mid-flight.
			b.process(ctx, env)
		case <-ctx.Done():
			b.log.Debug("Context done, stopping notification bridge")
			return nil
		}
	}
}

func (b *NotificationBridge) process(ctx context.Context, env event.Envelope) {
	recipients, err := b.recipientsOf(ctx, env)
	if err != nil {
		b.stats.IncrNotificationFailures()
		b.log.Warn("Recipient resolution failed", "kind", env.Kind, "error", err)
		return
	}

	for _, recipient := range recipients {
		n := domain.Notification{
			ID:        uuid.New(),
			Recipient: recipient,
			Kind:      string(env.Kind),
			Summary:   env.Summary(),
			CreatedAt: time.Now().UTC(),
		}

		if err := b.repository.Store(n); err != nil {
			// Non-fatal: the triggering domain action already happened and
			// must not unwind because a notification could not be written.
			b.stats.IncrNotificationFailures()
			b.log.Error("Failed to persist notification",
				"recipient", recipient, "kind", env.Kind, "error", err)
		} else {
			b.stats.IncrNotificationsStored()
		}

		for _, delivery := range b.presence.UserDeliveries(recipient) {
			if err := delivery.Sink.Notify(ctx, n); err != nil {
				b.log.Debug("Live push failed",
					"conn_id", delivery.ConnID, "recipient", recipient, "error", err)
			}
		}
	}
}

// recipientsOf resolves the envelope's implied interested parties: the target
// user for direct kinds, every room participant except the actor for room
// kinds. Participants come from the relational store, not the live member
// set, so offline users accumulate records too.
func (b *NotificationBridge) recipientsOf(ctx context.Context, env event.Envelope) ([]string, error) {
	if env.TargetUserID != "" {
		return []string{env.TargetUserID}, nil
	}
	participants, err := b.directory.ParticipantsOf(ctx, env.Room)
	if err != nil {
		return nil, err
	}
	recipients := lo.Reject(lo.Uniq(participants), func(p string, _ int) bool {
		return p == env.SenderID
	})
	return recipients, nil
}
