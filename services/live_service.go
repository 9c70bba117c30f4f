package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"studio-live/domain"
	"studio-live/domain/event"
	"studio-live/errors"
	"studio-live/runtime"
)

// ILiveService is the only interface the CRUD layer needs from the real-time
// core: inject a system-originated envelope, and read or flag the durable
// notification trail.
type ILiveService interface {
	Inject(ctx context.Context, env event.Envelope)
	Notifications(userID string, cursor *string) ([]domain.Notification, *string, error)
	MarkRead(userID string, id uuid.UUID) error
}

type LiveService struct {
	handle *runtime.Handle
	log    *slog.Logger
}

func NewLiveService(handle *runtime.Handle, log *slog.Logger) *LiveService {
	return &LiveService{handle: handle, log: log}
}

// Inject forwards a system envelope to the core. When the core is not yet
// initialized (early in process startup) the envelope is dropped with a
// logged warning: the primary action behind the injection must succeed
// independently of real-time delivery, so nothing is thrown back here.
func (s *LiveService) Inject(_ context.Context, env event.Envelope) {
	orch, ok := s.handle.Current()
	if !ok {
		s.log.Warn("Live core unavailable, dropping injected envelope", "kind", env.Kind)
		return
	}
	if err := orch.Inject(env); err != nil {
		s.log.Warn("Injected envelope not accepted", "kind", env.Kind, "error", err)
	}
}

func (s *LiveService) Notifications(userID string, cursor *string) ([]domain.Notification, *string, error) {
	orch, ok := s.handle.Current()
	if !ok {
		return nil, nil, errors.ErrCoreUnavailable
	}
	return orch.Notifications(userID, cursor)
}

func (s *LiveService) MarkRead(userID string, id uuid.UUID) error {
	orch, ok := s.handle.Current()
	if !ok {
		return errors.ErrCoreUnavailable
	}
	return orch.MarkNotificationRead(userID, id)
}
