package runtime

import (
	"log/slog"
	"sync"
)

// Handle is the process-lifetime reference to the live transport core.
// Stateless request handlers receive it by injection at process start and
// use it to push system-originated envelopes without holding connection
// state. Registration is idempotent: a second write (development-mode hot
// reload re-running init paths) is logged and ignored, so reads always
// return the same instance across reload boundaries.
type Handle struct {
	mu   sync.RWMutex
	orch *Orchestrator
	log  *slog.Logger
}

func NewHandle(log *slog.Logger) *Handle {
	return &Handle{log: log.With(slog.String("component", "live_handle"))}
}

func (h *Handle) Register(o *Orchestrator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.orch != nil {
		h.log.Warn("Live handle already registered, keeping the existing instance")
		return
	}
	h.orch = o
}

// Current returns the registered core, or false while the process is still
// starting up. Callers must treat false as "drop and log", never as an error
// surfaced to their own caller.
func (h *Handle) Current() (*Orchestrator, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.orch, h.orch != nil
}
