// Package db manages the database connection lifecycle.
package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vitalstore/internal/types"
	"vitalstore/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// Startup connect policy: a small fixed number of attempts with a fixed
	// delay, then fail fast. No retry once the process is up.
	connectAttempts = 5
	connectBackoff  = 5 * time.Second
)

// NewDB opens the database described by DATABASE_DSN, retrying connection
// establishment with bounded fixed backoff before giving up.
func NewDB(configManager types.ConfigManager) (*gorm.DB, error) {
	dsn := configManager.GetDatabaseConfig().DSN
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is not configured")
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		database, err := open(configManager, dsn)
		if err == nil {
			return database, nil
		}
		lastErr = err
		if attempt < connectAttempts {
			logrus.Warnf("Database connection failed (attempt %d/%d): %v, retrying in %s",
				attempt, connectAttempts, err, connectBackoff)
			time.Sleep(connectBackoff)
		}
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", connectAttempts, lastErr)
}

func open(configManager types.ConfigManager, dsn string) (*gorm.DB, error) {
	var gormLogger logger.Interface
	if configManager.GetLogConfig().Level == "debug" {
		gormLogger = logger.New(
			log.New(logrus.StandardLogger().Out, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Info,
				IgnoreRecordNotFoundError: true,
			},
		)
	}

	isPostgres := strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		(strings.Contains(dsn, "host=") && strings.Contains(dsn, "dbname="))
	isMySQL := strings.Contains(dsn, "@tcp(") || strings.Contains(dsn, "@unix(")

	var dialector gorm.Dialector
	switch {
	case isPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	case isMySQL:
		if !strings.Contains(dsn, "parseTime") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
		dialector = mysql.Open(dsn)
	default:
		// SQLite: file path or :memory:, used mainly for tests and local runs.
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		params := "_pragma=foreign_keys(1)&_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL"
		delimiter := "?"
		if strings.Contains(dsn, "?") {
			delimiter = "&"
		}
		if dsn == ":memory:" {
			dialector = sqlite.Open(dsn)
		} else {
			dialector = sqlite.Open(dsn + delimiter + params)
		}
	}

	database, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if isPostgres || isMySQL {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// SQLite is a single-writer store; keep the pool tiny to avoid lock churn.
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		if utils.IsConnectionRefused(err) {
			return nil, fmt.Errorf("database not reachable: %w", err)
		}
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return database, nil
}
