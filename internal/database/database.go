package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"

	"ms-seeder/internal/config"
	"ms-seeder/internal/logger"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// RetryDelay is the pause between connection attempts.
var RetryDelay = 2 * time.Second

func openSQL(cfg config.DatabaseConfig) (*sql.DB, schema.Dialect, error) {
	dsn := cfg.ConnectionString()

	switch cfg.Driver {
	case "postgres":
		sqldb, err := sql.Open("postgres", dsn)
		return sqldb, pgdialect.New(), err
	case "pg":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New(), nil
	case "mysql":
		sqldb, err := sql.Open("mysql", dsn)
		return sqldb, mysqldialect.New(), err
	case "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err == nil {
			// sqlite allows a single writer
			sqldb.SetMaxOpenConns(1)
		}
		return sqldb, sqlitedialect.New(), err
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Open connects to the configured database, retrying the ping up to
// cfg.ConnectRetries times.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	sqldb, dialect, err := openSQL(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Driver != "sqlite" {
		if cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxLifetime > 0 {
			sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
		}
	}

	maxRetries := cfg.ConnectRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to %s (attempt %d/%d)", cfg.Driver, i+1, maxRetries))

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", cfg.Driver, err))
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				sqldb.Close()
				return nil, ctx.Err()
			case <-time.After(RetryDelay):
			}
		}
	}

	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", cfg.Driver, maxRetries, err)
	}

	log.Info("DATABASE", fmt.Sprintf("✅ %s connection successful", cfg.Driver))
	return bun.NewDB(sqldb, dialect), nil
}
