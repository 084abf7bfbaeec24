package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/justsurfingit/cover-letter-agent/internal/config"
	"github.com/justsurfingit/cover-letter-agent/internal/database/migrations"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// Seams for tests.
var (
	openSQL = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	sleep = time.Sleep
)

// Connect opens Postgres through the pgx stdlib driver, waits for it to
// accept connections and applies the configured migrations.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*gorm.DB, error) {
	sqlDB, err := openSQL(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = retry(ctx, connectAttempts, connectBackoff, func() error {
		return sqlDB.PingContext(ctx)
	}, func(attempt int, err error, wait time.Duration) {
		log.Warn(ctx, "database not ready, retrying", "attempt", attempt, "wait", wait.String(), "error", err)
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info(ctx, "database connection established")

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	if err := Migrate(ctx, db, sqlDB, cfg.Migrate); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info(ctx, "migrations applied", "mode", cfg.Migrate)
	return db, nil
}

// Migrate applies the schema: "goose" runs the embedded SQL files, "auto"
// lets gorm derive the tables from the models, "none" does nothing.
func Migrate(ctx context.Context, db *gorm.DB, sqlDB *sql.DB, mode string) error {
	switch mode {
	case "goose":
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("pgx"); err != nil {
			return fmt.Errorf("goose dialect: %w", err)
		}
		if err := gooseUpContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	case "auto":
		if err := db.WithContext(ctx).AutoMigrate(&models.JobPosting{}, &models.GeneratedLetter{}, &models.UserProfile{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	case "none", "":
	default:
		return fmt.Errorf("unknown migrate mode %q", mode)
	}
	return nil
}

// retry calls f up to attempts times, doubling the wait after each failure.
func retry(ctx context.Context, attempts int, wait time.Duration, f func() error, onErr func(attempt int, err error, wait time.Duration)) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		if onErr != nil {
			onErr(i, err, wait)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		sleep(wait)
		wait *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
