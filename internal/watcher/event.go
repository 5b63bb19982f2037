package watcher

import (
	"log/slog"
	"time"
)

// EventType says how a catalog file changed.
type EventType int

const (
	EventAdded EventType = iota
	EventModified
	EventRemoved
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	}
	return "unknown"
}

// Event is a settled change to a watched catalog file. Size and ModTime
// describe the file once it stopped changing and are zero for removals.
type Event struct {
	ModTime time.Time
	Path    string
	Size    int64
	Type    EventType
}

// LogValue groups the event's fields in log records.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", e.Type.String()),
		slog.String("path", e.Path),
	}
	if e.Type != EventRemoved {
		attrs = append(attrs, slog.Int64("size", e.Size), slog.Time("mod_time", e.ModTime))
	}
	return slog.GroupValue(attrs...)
}
