// Package providers wires the BookWise server's components into the DI
// container. Components with a lifecycle are returned as handles that
// implement do.Shutdownable.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/bookwise/bookwise-server/internal/config"
	"github.com/bookwise/bookwise-server/internal/logger"
)

// ProvideConfig loads configuration from flags, environment and .env.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger builds the root logger. Components derive their own with
// Logger.Component.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
		AddSource:   cfg.App.Environment == "development",
	})

	log.Info("Starting BookWise",
		slog.Group("config",
			"environment", cfg.App.Environment,
			"data_path", cfg.Catalog.DataPath,
			"sqlite_path", cfg.Catalog.SQLitePath,
			"max_features", cfg.Engine.MaxFeatures,
			"watch", cfg.Watch.Enabled,
		),
	)

	return log, nil
}
