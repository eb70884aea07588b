package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	_ "github.com/lib/pq"
)

type ConnConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// QueryFormatter rewrites statements before they are attached to
	// spans, so traces stay readable for multi-line queries.
	QueryFormatter func(query string) string
}

// Open dials Postgres through the instrumented driver so every query
// shows up as a span under the caller's trace.
func Open(ctx context.Context, cfg ConnConfig) (*sqlx.DB, error) {
	opts := []otelsql.Option{
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	}
	if cfg.QueryFormatter != nil {
		opts = append(opts, otelsql.WithQueryFormatter(cfg.QueryFormatter))
	}

	db, err := otelsqlx.Open("postgres", cfg.DSN, opts...)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
