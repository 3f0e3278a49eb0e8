// Package container wires the dependency injection graph.
package container

import (
	"vitalstore/internal/app"
	"vitalstore/internal/config"
	"vitalstore/internal/db"
	"vitalstore/internal/handler"
	"vitalstore/internal/router"
	"vitalstore/internal/services"
	"vitalstore/internal/types"

	"go.uber.org/dig"
	"gorm.io/gorm"
)

// BuildContainer creates and configures the dig container with all providers.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		config.NewManager,
		db.NewDB,
		services.NewRollupService,
		services.NewIngestService,
		services.NewQueryService,
		services.NewAdherenceService,
		newImputationService,
		handler.NewServer,
		router.NewRouter,
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

func newImputationService(gormDB *gorm.DB, configManager types.ConfigManager) *services.ImputationService {
	return services.NewImputationService(gormDB, configManager.GetJobConfig().ImputationConcurrency)
}
