// Package store holds all persistence for zascita. Every query goes through
// a Store, which knows the SQL dialect in use and hands out transactions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/zascita/internal/db"
)

// runner is satisfied by both *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store provides access to persisted zascita data.
type Store struct {
	db      *sql.DB
	dialect string
	sb      sq.StatementBuilderType
	now     func() time.Time
}

// New returns a Store over an open, migrated database.
func New(database *sql.DB, dialect string) *Store {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == db.DialectPostgres {
		format = sq.Dollar
	}
	return &Store{
		db:      database,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(format),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("committing transaction: %w", cerr)
		}
	}()

	return fn(tx)
}

// rebind rewrites ? placeholders for the active dialect.
func (s *Store) rebind(query string) string {
	if s.dialect != db.DialectPostgres {
		return query
	}
	q, err := sq.Dollar.ReplacePlaceholders(query)
	if err != nil {
		return query
	}
	return q
}

func (s *Store) exec(ctx context.Context, r runner, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return r.ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, r runner, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return r.QueryContext(ctx, query, args...)
}

// newID returns a fresh identifier unless one was supplied.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// affected returns ErrNotFound when an update or delete touched no rows.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err came from a unique or primary key
// constraint on either supported driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
