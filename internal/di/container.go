// Package di provides dependency injection configuration for the search service.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/anditianred/ao3-api/internal/config"
	"github.com/anditianred/ao3-api/internal/di/providers"
	"github.com/anditianred/ao3-api/internal/search"
)

// NewContainer creates and configures the DI container with all providers.
// args are parsed as config flags.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, providers.Args(args))

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideTagIndex)

	// Search layer
	do.Provide(injector, providers.ProvideCatalogClient)
	do.Provide(injector, providers.ProvideSearcher)
	do.Provide(injector, providers.ProvideRunner)

	// Server
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the search stack without starting the HTTP server.
// Configuration and open errors surface here instead of panicking later.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*slog.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.TagIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*search.Runner](injector); err != nil {
		return err
	}
	return nil
}

// Serve bootstraps everything and starts the HTTP server.
func Serve(injector *do.RootScope) error {
	if err := Bootstrap(injector); err != nil {
		return err
	}
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
