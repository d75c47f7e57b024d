package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/anditianred/ao3-api/internal/sse"
)

// SSEManagerHandle wraps the job event manager with shutdown capability.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the job event manager with its broadcast loop
// already running.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*slog.Logger](i)

	manager := sse.NewManager(log)
	ctx, cancel := context.WithCancel(context.Background())
	manager.Start(ctx)

	return &SSEManagerHandle{Manager: manager, cancel: cancel}, nil
}
