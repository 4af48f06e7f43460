package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the remote Postgres store behind dsn.
func Open(dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(log, 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("models: open: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the categories and products tables. On Postgres
// it also adds the products.category_id foreign key.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Category{}, &Product{}); err != nil {
		return fmt.Errorf("models: migrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	m := db.Migrator()
	if !m.HasConstraint(&ProductWithCategory{}, "Category") {
		if err := m.CreateConstraint(&ProductWithCategory{}, "Category"); err != nil {
			return fmt.Errorf("models: migrate: category constraint: %w", err)
		}
	}
	return nil
}

type gormLogger struct {
	log           *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger routes gorm diagnostics to slog. Queries slower than
// slowThreshold are logged at warn level.
func NewGormLogger(log *slog.Logger, slowThreshold time.Duration) logger.Interface {
	if log == nil {
		log = slog.Default()
	}
	return &gormLogger{log: log, level: logger.Warn, slowThreshold: slowThreshold}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	// not found is an expected outcome, repositories report it themselves
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		l.log.ErrorContext(ctx, "query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.WarnContext(ctx, "slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.DebugContext(ctx, "query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
