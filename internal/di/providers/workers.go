package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookwise/bookwise-server/internal/config"
	"github.com/bookwise/bookwise-server/internal/logger"
	"github.com/bookwise/bookwise-server/internal/watcher"
)

// FileWatcherHandle wraps the source watcher and its reloader with shutdown
// capability. Watcher is nil when watching is disabled.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideFileWatcher watches the catalog sources and rebuilds the catalog
// after they change.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalogHandle := do.MustInvoke[*CatalogServiceHandle](i)

	if !cfg.Watch.Enabled {
		log.Info("Source watching disabled by configuration")
		return &FileWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Component("watcher"), watcher.Options{})
	if err != nil {
		return nil, err
	}

	paths := []string{cfg.Catalog.GoodreadsPath(), cfg.Catalog.KindlePath()}
	if cfg.Catalog.SQLitePath != "" {
		paths = append(paths, cfg.Catalog.SQLitePath)
	}
	for _, path := range paths {
		if err := w.Watch(path); err != nil {
			_ = w.Stop()
			return nil, err
		}
		log.Info("Watching catalog source", "path", path)
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()

	go func() {
		for {
			select {
			case err := <-w.Errors():
				log.Warn("file watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	reloader := watcher.NewReloader(w, func(ctx context.Context) error {
		_, err := catalogHandle.Rebuild(ctx)
		return err
	}, cfg.Watch.Debounce, log.Component("reloader"))
	go reloader.Run(ctx)

	return &FileWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
