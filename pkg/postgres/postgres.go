// Package postgres dials the database behind the URL store and applies
// schema migrations. The returned handle is passed to components
// explicitly; there is no ambient global connection.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// settings collects the pool limits applied to a new handle. The
// defaults suit a single service instance against a small database.
type settings struct {
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
}

type Option func(*settings)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(s *settings) {
		s.connMaxIdleTime = d
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(s *settings) {
		s.connMaxLifetime = d
	}
}

func WithMaxIdleConns(n int) Option {
	return func(s *settings) {
		s.maxIdleConns = n
	}
}

func WithMaxOpenConns(n int) Option {
	return func(s *settings) {
		s.maxOpenConns = n
	}
}

// Connect opens a pooled connection to the database via the pgx stdlib
// driver and verifies it with a ping bound by ctx.
func Connect(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.Connect"

	s := settings{
		connMaxIdleTime: 5 * time.Minute,
		connMaxLifetime: 30 * time.Minute,
		maxIdleConns:    5,
		maxOpenConns:    25,
	}
	for _, opt := range opts {
		opt(&s)
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetConnMaxIdleTime(s.connMaxIdleTime)
	db.SetConnMaxLifetime(s.connMaxLifetime)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetMaxOpenConns(s.maxOpenConns)

	return db, nil
}

// Migrate brings the schema up to date from the migration files at path.
// A schema that is already current is not an error.
func Migrate(path, dsn string) error {
	const op = "postgres.Migrate"

	m, err := migrate.New(path, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to apply migrations: %w", op, err)
	}

	return nil
}
