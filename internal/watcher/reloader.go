package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/bookwise/bookwise-server/internal/metrics"
)

// EventSource supplies settled file events.
type EventSource interface {
	Events() <-chan Event
}

// RebuildFunc rebuilds whatever depends on the watched files.
type RebuildFunc func(ctx context.Context) error

// Reloader coalesces bursts of file events into a single rebuild once no
// event has arrived for the debounce period.
type Reloader struct {
	source   EventSource
	rebuild  RebuildFunc
	debounce time.Duration
	logger   *slog.Logger
}

// NewReloader creates a reloader calling rebuild after debounce of quiet.
func NewReloader(source EventSource, rebuild RebuildFunc, debounce time.Duration, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reloader{
		source:   source,
		rebuild:  rebuild,
		debounce: debounce,
		logger:   logger,
	}
}

// Run processes events until ctx is cancelled. Rebuilds run on the Run
// goroutine, so events arriving during a rebuild schedule exactly one more.
func (r *Reloader) Run(ctx context.Context) {
	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var changed []string
	events := r.source.Events()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			r.logger.Debug("catalog file changed", "event", event)
			changed = append(changed, event.Path)
			timer.Reset(r.debounce)

		case <-timer.C:
			r.logger.Info("catalog files changed, rebuilding", "changes", len(changed), "paths", dedupe(changed))
			changed = changed[:0]

			err := r.rebuild(ctx)
			metrics.RecordWatchTrigger(err)
			if err != nil {
				r.logger.Error("rebuild after file change failed", "error", err)
			}
		}
	}
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
