// Package sse streams background search job events to HTTP clients as
// Server-Sent Events.
package sse

import "time"

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventJobSubmitted is sent when a search job is queued.
	EventJobSubmitted EventType = "job.submitted"
	// EventJobFinished is sent when a search job delivers its result.
	EventJobFinished EventType = "job.finished"
	// EventJobFailed is sent when a search job ends with an error.
	EventJobFailed EventType = "job.failed"
	// EventJobCanceled is sent when a search job is canceled.
	EventJobCanceled EventType = "job.canceled"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
	// EventConnected is the first event of every stream.
	EventConnected EventType = "connected"
)

// Event is one message on the stream.
type Event struct {
	Type      EventType `json:"type"`
	JobID     string    `json:"job_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// NewJobEvent creates an event about one job.
func NewJobEvent(t EventType, jobID string, data any) Event {
	return Event{
		Type:      t,
		JobID:     jobID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now().UTC()}
}
