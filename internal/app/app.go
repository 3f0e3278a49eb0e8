// Package app provides the main application logic and lifecycle management.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vitalstore/internal/models"
	"vitalstore/internal/types"
	"vitalstore/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// App holds the service graph and manages the application lifecycle.
type App struct {
	engine        *gin.Engine
	configManager types.ConfigManager
	db            *gorm.DB
	httpServer    *http.Server
}

// AppParams defines the dependencies for the App.
type AppParams struct {
	dig.In
	Engine        *gin.Engine
	ConfigManager types.ConfigManager
	DB            *gorm.DB
}

// NewApp is the constructor for App, with dependencies injected by dig.
func NewApp(params AppParams) *App {
	return &App{
		engine:        params.Engine,
		configManager: params.ConfigManager,
		db:            params.DB,
	}
}

// Migrate creates or updates the schema. The three rollup tiers share one
// row shape, so they are migrated per table name.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.MetricSample{},
		&models.DailyZone{},
		&models.SleepSummary{},
	); err != nil {
		return fmt.Errorf("database auto-migration failed: %w", err)
	}
	for _, table := range []string{models.TableRollup1m, models.TableRollup1h, models.TableRollup1d} {
		if err := db.Table(table).AutoMigrate(&models.RollupSample{}); err != nil {
			return fmt.Errorf("rollup table %s migration failed: %w", table, err)
		}
	}
	return nil
}

// Start runs the application, it is a non-blocking call.
func (a *App) Start() error {
	if err := Migrate(a.db); err != nil {
		return err
	}
	logrus.Info("Database auto-migration completed.")

	a.configManager.DisplayServerConfig()

	serverConfig := a.configManager.GetServerConfig()
	a.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:        a.engine,
		ReadTimeout:    time.Duration(serverConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(serverConfig.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(serverConfig.IdleTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Infof("VitalStore server started successfully on Version: %s", version.Version)
		logrus.Infof("Server address: http://%s:%d", serverConfig.Host, serverConfig.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server startup failed: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application.
func (a *App) Stop(ctx context.Context) {
	logrus.Info("Shutting down server...")

	if a.httpServer != nil {
		shutdownStart := time.Now()
		if err := a.httpServer.Shutdown(ctx); err != nil {
			logrus.Debug("HTTP server graceful shutdown timed out, forcing remaining connections to close.")
			if closeErr := a.httpServer.Close(); closeErr != nil {
				logrus.Errorf("Error forcing HTTP server to close: %v", closeErr)
			}
		}
		logrus.Infof("HTTP server has been shut down. (took %v)", time.Since(shutdownStart))
	}

	closeDBConnection(a.db, "Main database")
	logrus.Info("Server exited gracefully")
}

// closeDBConnection gracefully closes a GORM database connection with a
// bounded wait so shutdown cannot hang on a stuck pool.
func closeDBConnection(gormDB *gorm.DB, name string) {
	if gormDB == nil {
		return
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logrus.Errorf("Error getting sql.DB for %s: %v", name, err)
		return
	}

	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetConnMaxLifetime(0)

	closeStart := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- sqlDB.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			logrus.Errorf("[%s] Error closing connection: %v (took %v)", name, err, time.Since(closeStart))
		} else {
			logrus.Debugf("[%s] Connection closed successfully. (took %v)", name, time.Since(closeStart))
		}
	case <-time.After(1 * time.Second):
		logrus.Warnf("[%s] Connection close timed out after 1s, proceeding anyway", name)
	}
}
