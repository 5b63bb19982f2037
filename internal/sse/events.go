// Package sse implements Server-Sent Events for catalog lifecycle updates.
package sse

import (
	"time"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCatalogRebuilt is sent after a new snapshot starts serving.
	EventCatalogRebuilt EventType = "catalog.rebuilt"
	// EventCatalogRebuildFailed is sent when a rebuild fails and the previous
	// snapshot, if any, keeps serving.
	EventCatalogRebuildFailed EventType = "catalog.rebuild_failed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// CatalogRebuiltEventData is the data payload for catalog.rebuilt.
type CatalogRebuiltEventData struct {
	BuiltAt    time.Time      `json:"built_at"`
	BySource   map[string]int `json:"by_source"`
	SnapshotID string         `json:"snapshot_id"`
	Books      int            `json:"books"`
	Vocabulary int            `json:"vocabulary"`
	Genres     int            `json:"genres"`
	Dropped    int            `json:"dropped"`
	DurationMS int64          `json:"duration_ms"`
}

// CatalogRebuildFailedEventData is the data payload for catalog.rebuild_failed.
type CatalogRebuildFailedEventData struct {
	Error string `json:"error"`
	// ServingSnapshotID is empty when no snapshot is serving.
	ServingSnapshotID string `json:"serving_snapshot_id,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewCatalogRebuiltEvent creates a catalog.rebuilt event.
func NewCatalogRebuiltEvent(data CatalogRebuiltEventData) Event {
	return Event{
		Type:      EventCatalogRebuilt,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewCatalogRebuildFailedEvent creates a catalog.rebuild_failed event.
func NewCatalogRebuildFailedEvent(err error, servingSnapshotID string) Event {
	return Event{
		Type: EventCatalogRebuildFailed,
		Data: CatalogRebuildFailedEventData{
			Error:             err.Error(),
			ServingSnapshotID: servingSnapshotID,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}
