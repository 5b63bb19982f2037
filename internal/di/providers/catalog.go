package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookwise/bookwise-server/internal/catalog"
	"github.com/bookwise/bookwise-server/internal/config"
	"github.com/bookwise/bookwise-server/internal/logger"
	"github.com/bookwise/bookwise-server/internal/service"
)

// ProvideCatalogLoader provides the loader over every configured source:
// the CSV exports first, then the SQLite rows when a database is open.
func ProvideCatalogLoader(i do.Injector) (*catalog.Loader, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	sources := catalog.DirSources(cfg.Catalog.DataPath, cfg.Catalog.GoodreadsFile, cfg.Catalog.KindleFile)
	if storeHandle.Store != nil {
		sources = append(sources, storeHandle.Store)
	}

	return catalog.NewLoader(log.Component("catalog"), sources...), nil
}

// CatalogServiceHandle wraps the catalog service with shutdown capability.
type CatalogServiceHandle struct {
	*service.CatalogService
}

// Shutdown implements do.Shutdownable.
func (h *CatalogServiceHandle) Shutdown() error {
	return h.Close()
}

// ProvideCatalogService provides the catalog service and runs the first
// build. A failed first build is logged; queries report NOT_READY until a
// later rebuild succeeds.
func ProvideCatalogService(i do.Injector) (*CatalogServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	loader := do.MustInvoke[*catalog.Loader](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := service.NewCatalogService(loader, service.CatalogOptions{
		MaxFeatures:     cfg.Engine.MaxFeatures,
		DefaultK:        cfg.Engine.DefaultK,
		MaxK:            cfg.Engine.MaxK,
		SuggestionLimit: cfg.Engine.SuggestionLimit,
		PageSize:        cfg.Engine.PageSize,
	}, log.Component("service"))
	svc.SetEventEmitter(sseHandle.Manager)

	if _, err := svc.Rebuild(context.Background()); err != nil {
		log.WithError(err).Warn("Initial catalog build failed, serving NOT_READY until a rebuild succeeds")
	}

	return &CatalogServiceHandle{CatalogService: svc}, nil
}
