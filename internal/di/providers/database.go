package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookwise/bookwise-server/internal/config"
	"github.com/bookwise/bookwise-server/internal/logger"
	"github.com/bookwise/bookwise-server/internal/store/sqlite"
)

// StoreHandle wraps the optional SQLite row store with shutdown capability.
// Store is nil when no database is configured.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	if h.Store == nil {
		return nil
	}
	return h.Close()
}

// ProvideStore opens the SQLite database when one is configured.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Catalog.SQLitePath == "" {
		log.Debug("No SQLite catalog configured")
		return &StoreHandle{}, nil
	}

	db, err := sqlite.Open(cfg.Catalog.SQLitePath, log.Component("sqlite"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Catalog.SQLitePath)

	return &StoreHandle{Store: db}, nil
}
