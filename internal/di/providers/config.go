// Package providers contains dependency injection providers for the search service.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/anditianred/ao3-api/internal/config"
	"github.com/anditianred/ao3-api/internal/logger"
)

// Args are the command line arguments config flags are parsed from.
type Args []string

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	args, err := do.Invoke[Args](i)
	if err != nil {
		args = nil
	}
	return config.Load(args)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	level, err := logger.ParseLevel(cfg.Logger.Level)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:       level,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting AO3 search service",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"cache_dir", cfg.Cache.Dir,
		"catalog", cfg.Catalog.BaseURL,
	)

	return log, nil
}
