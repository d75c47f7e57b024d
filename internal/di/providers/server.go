package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/anditianred/ao3-api/internal/api"
	"github.com/anditianred/ao3-api/internal/config"
	"github.com/anditianred/ao3-api/internal/search"
)

// Version is reported in the OpenAPI document. Set at build time.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.handler.Close()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	pages := do.MustInvoke[*CacheHandle](i)
	tags := do.MustInvoke[*TagIndexHandle](i)
	searcher := do.MustInvoke[*search.Searcher](i)
	runner := do.MustInvoke[*search.Runner](i)
	events := do.MustInvoke[*SSEManagerHandle](i)

	services := &api.Services{
		Searcher: searcher,
		Runner:   runner,
		Cache:    pages.Cache,
		Tags:     tags.Index,
		Events:   events.Manager,
	}

	handler := api.NewServer(services, api.Options{
		Version:     Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		ClientRPS:   cfg.Server.ClientRPS,
		ClientBurst: cfg.Server.ClientBurst,

		EventHeartbeat: cfg.Server.EventHeartbeat,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
