// Package warehouse loads the fixed trip aggregations behind the analytics
// dashboard from a Postgres-compatible warehouse and prepares them for display
// and for prompts.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Yates-Labs/spoke/internal/logging"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

var (
	ErrUnknownDriver    = errors.New("unknown warehouse driver")
	ErrConnectionFailed = errors.New("failed to connect to warehouse")
	ErrQueryFailed      = errors.New("warehouse query failed")
)

// Supported drivers.
const (
	DriverPG       = "pgdriver"
	DriverPostgres = "postgres"
)

// Config describes how to reach the warehouse.
type Config struct {
	Driver   string
	DSN      string
	Password string
	Debug    bool
}

// Open connects to the warehouse and verifies the connection.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	sqldb, err := openSQL(cfg)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.WithWriter(logging.Writer()),
		))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return db, nil
}

func openSQL(cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case "", DriverPG:
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	case DriverPostgres:
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}
		return sqldb, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
