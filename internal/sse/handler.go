package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultHeartbeat is how often an idle stream gets a keepalive event.
const DefaultHeartbeat = 30 * time.Second

// Handler streams job events. The optional "job" query parameter limits
// the stream to one job.
type Handler struct {
	manager   *Manager
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewHandler creates a new SSE Handler. heartbeat <= 0 uses DefaultHeartbeat.
func NewHandler(manager *Manager, heartbeat time.Duration, logger *slog.Logger) *Handler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Handler{
		manager:   manager,
		logger:    logger,
		heartbeat: heartbeat,
	}
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if request context is already canceled (early client disconnect).
	if r.Context().Err() != nil {
		return
	}

	client, err := h.manager.Connect(r.URL.Query().Get("job"))
	if err != nil {
		http.Error(w, "Event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer h.manager.Disconnect(client.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	if err := h.sendEvent(w, rc, Event{
		Type:      EventConnected,
		JobID:     client.JobID,
		Timestamp: time.Now().UTC(),
		Data:      map[string]string{"client_id": client.ID},
	}); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	heartbeatTicker := time.NewTicker(h.heartbeat)
	defer heartbeatTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case event := <-client.EventChan:
			if err := h.sendEvent(w, rc, event); err != nil {
				clientLogger.Debug("client disconnected during send")
				return
			}

		case <-heartbeatTicker.C:
			if err := h.sendEvent(w, rc, NewHeartbeatEvent()); err != nil {
				clientLogger.Debug("client disconnected during heartbeat")
				return
			}

		case <-client.Done:
			// Manager closed this client (server shutdown).
			return

		case <-ctx.Done():
			return
		}
	}
}

// sendEvent writes one event in SSE framing and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset after each successful write so a stuck client cannot hold the
	// connection forever.
	if err := rc.SetWriteDeadline(time.Now().Add(2 * h.heartbeat)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
