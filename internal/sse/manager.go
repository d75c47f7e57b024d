package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/anditianred/ao3-api/internal/id"
)

// ErrShutdown is returned by Connect after Shutdown.
var ErrShutdown = errors.New("event stream shut down")

// Client represents a connected SSE client.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
	// JobID limits delivery to one job's events. Empty means all jobs.
	JobID string
}

// Manager fans job events out to connected clients.
type Manager struct {
	clients map[string]*Client
	events  chan Event
	logger  *slog.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewManager creates a new SSE Manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		events:  make(chan Event, 1000), // Buffer 1000 events
		logger:  logger,
	}
}

// Start runs the broadcast loop in the background until ctx is done or
// Shutdown is called.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.closeAllClients()

		for {
			select {
			case event, ok := <-m.events:
				if !ok {
					return
				}
				m.broadcast(event)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops accepting events, delivers the queued ones and closes all
// clients. It waits for the broadcast loop until ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	// Close the channel under the write lock; Emit sends under the read lock.
	m.shutdownMu.Lock()
	if m.shutdown {
		m.shutdownMu.Unlock()
		return nil
	}
	m.shutdown = true
	close(m.events)
	m.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("event stream drain timeout, some events may be lost")
		return ctx.Err()
	}
}

// broadcast sends an event to the clients following its job.
func (m *Manager) broadcast(event Event) {
	var delivered, dropped, filtered int

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if client.JobID != "" && client.JobID != event.JobID {
			filtered++
			continue
		}

		// Non-blocking send (drop if client is slow/stuck).
		select {
		case client.EventChan <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	m.logger.Debug("event broadcast",
		slog.String("event_type", string(event.Type)),
		slog.String("job", event.JobID),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("filtered", filtered),
			slog.Int("dropped", dropped)))
}

// Connect registers a client. jobID limits it to one job's events; empty
// means every job.
func (m *Manager) Connect(jobID string) (*Client, error) {
	m.shutdownMu.RLock()
	closed := m.shutdown
	m.shutdownMu.RUnlock()
	if closed {
		return nil, ErrShutdown
	}

	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		JobID:       jobID,
		EventChan:   make(chan Event, 100), // Buffer 100 events per client
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	totalClients := len(m.clients)
	m.mu.Unlock()

	m.logger.Debug("SSE client connected",
		slog.String("client_id", clientID),
		slog.String("job", jobID),
		slog.Int("total_clients", totalClients))
	return client, nil
}

// Disconnect removes a client and closes its Done channel.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	totalClients := len(m.clients)
	m.mu.Unlock()

	close(client.Done)

	m.logger.Debug("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", totalClients))
}

// Emit queues an event for broadcasting. Events emitted after Shutdown, or
// while the queue is full, are dropped.
func (m *Manager) Emit(event Event) {
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()

	if m.shutdown {
		return
	}

	select {
	case m.events <- event:
	default:
		m.logger.Error("SSE event channel full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		close(client.Done)
	}
}
