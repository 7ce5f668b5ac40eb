// Package repository is the PostgreSQL persistence of campaigns, sequence
// steps, prospects, interactions and connected mailboxes.
package repository

import (
	"context"
	"embed"
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/outreach/internal/outreach"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the goose migrations of the schema, rooted at the
// directory holding the .sql files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// ErrDuplicate is returned when a write collides with a unique constraint,
// e.g. two steps with the same order in one campaign.
var ErrDuplicate = errors.New("repository: duplicate record")

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements the outreach stores on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ outreach.Store           = (*Repository)(nil)
	_ outreach.StatsStore      = (*Repository)(nil)
	_ outreach.CompletionStore = (*Repository)(nil)
	_ outreach.CredentialStore = (*Repository)(nil)
)

// mapError translates driver errors into the package and domain sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return outreach.ErrRecordNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return errors.Join(ErrDuplicate, err)
		case "23503":
			return errors.Join(outreach.ErrRecordNotFound, err)
		}
	}
	return err
}
