// Package postgres implements the portal stores on PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jwstudio/portal/internal/store"
	"github.com/rs/zerolog/log"
)

// DB owns the connection pool shared by the PostgreSQL stores.
type DB struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// Open connects to PostgreSQL and applies migrations when enabled.
func Open(ctx context.Context, cfg *Config) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := NewPool(ctx, &cfg.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	db := &DB{pool: pool}
	if cfg.QueryTimeoutSeconds > 0 {
		db.queryTimeout = time.Duration(cfg.QueryTimeoutSeconds) * time.Second
	}

	log.Info().Int32("max_conns", cfg.Pool.MaxConns).Bool("auto_migrate", cfg.AutoMigrate).Msg("Connected to PostgreSQL")

	return db, nil
}

// Stores returns the stores backed by this database.
func (db *DB) Stores() store.Stores {
	return store.Stores{
		Projects:     &ProjectStore{db: db},
		Testimonials: &TestimonialStore{db: db},
		Contacts:     &ContactStore{db: db},
	}
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.queryTimeout == 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.queryTimeout)
}
