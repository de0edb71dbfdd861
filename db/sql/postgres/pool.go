// Package postgres opens a lib/pq connection pool that connects lazily and
// bounds connection acquisition.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var ErrMissingDSN = errors.New("postgres: DSN is required")

// Pool wraps *sql.DB with an acquire timeout.
type Pool struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

// Open creates the pool. No connection is made until first use unless
// WithEagerConnect is given.
func Open(opts ...Option) (*Pool, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	p := &Pool{db: db, acquireTimeout: cfg.AcquireTimeout}
	if cfg.Eager {
		if err := p.Ping(context.Background()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return p, nil
}

// DB exposes the underlying handle for queries.
func (p *Pool) DB() *sql.DB { return p.db }

// Conn acquires a dedicated connection, waiting at most the acquire timeout.
// The caller must Close it.
func (p *Pool) Conn(ctx context.Context) (*sql.Conn, error) {
	ctx, cancel := p.acquireContext(ctx)
	defer cancel()
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquire: %w", err)
	}
	return conn, nil
}

// Ping checks the server is reachable within the acquire timeout.
func (p *Pool) Ping(ctx context.Context) error {
	ctx, cancel := p.acquireContext(ctx)
	defer cancel()
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Stats reports pool usage.
func (p *Pool) Stats() sql.DBStats { return p.db.Stats() }

func (p *Pool) Close() error { return p.db.Close() }

func (p *Pool) acquireContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, p.acquireTimeout)
}
