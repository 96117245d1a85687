package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBConfig holds configuration options for database initialization
type DBConfig struct {
	// Path specifies the database file path. Use ":memory:" for in-memory database
	Path string
	// LogLevel specifies the GORM logging level
	LogLevel logger.LogLevel
}

// InitDB opens the Flightdeck database at the given path and returns the
// GORM handle. The caller runs migrations afterwards.
func InitDB(databasePath string) (*gorm.DB, error) {
	slog.Debug("Initializing database", "path", databasePath)

	db, err := InitDatabase(DBConfig{
		Path:     databasePath,
		LogLevel: getGormLogLevel(),
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Database initialized successfully", "path", databasePath)
	return db, nil
}

// InitDatabase creates and configures a SQLite database with the given configuration
func InitDatabase(config DBConfig) (*gorm.DB, error) {
	var dsn string

	if config.Path == ":memory:" {
		dsn = ":memory:"
		slog.Debug("Initializing in-memory database")
	} else {
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create data directory", "dir", dir, "error", err)
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = config.Path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(config.LogLevel),
	})
	if err != nil {
		slog.Error("Failed to connect to database", "dsn", dsn, "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := "PRAGMA foreign_keys = ON;"
	if config.Path != ":memory:" {
		pragmas += `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous  = NORMAL;`
	}
	if err := db.Exec(pragmas).Error; err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return db, nil
}

// getGormLogLevel maps application log level to corresponding GORM log level
func getGormLogLevel() logger.LogLevel {
	ctx := slog.Default()

	switch {
	case ctx.Enabled(context.TODO(), slog.LevelDebug):
		return logger.Info // Show SQL queries only when debug logging is enabled
	case ctx.Enabled(context.TODO(), slog.LevelInfo),
		ctx.Enabled(context.TODO(), slog.LevelWarn):
		return logger.Warn
	case ctx.Enabled(context.TODO(), slog.LevelError):
		return logger.Error
	default:
		return logger.Silent
	}
}

// AllModels returns all the models that need to be migrated.
// This is the single source of truth for database migrations.
func AllModels() []any {
	return []any{
		&ProjectModel{},
		&DeploymentModel{},
		&ProductionReleaseModel{},
		&SettingModel{},
	}
}

// AutoMigrateAll runs auto-migration for all application models
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
