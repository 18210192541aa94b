// Package container assembles the dependency injection container.
package container

import (
	"go.uber.org/dig"

	"trans-gate/internal/app"
	"trans-gate/internal/config"
	"trans-gate/internal/db"
	"trans-gate/internal/httpclient"
	"trans-gate/internal/services"
)

// BuildContainer wires up all application dependencies.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		config.NewManager,
		config.NewKeyStoreFromEnv,
		httpclient.NewManager,
		db.NewDB,
		services.NewRequestLogService,
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
