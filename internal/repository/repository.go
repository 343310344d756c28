// internal/repository/repository.go

// Package repository holds the typed queries against the ERP schema.
// Find* functions return nil when no row matches; Get* functions return
// ErrNotFound.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("RECORD_NOT_FOUND")
	ErrQueryFailed  = errors.New("DATABASE_QUERY_FAILED")
	ErrInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Repository struct {
	db   dbtx
	pool *sql.DB
	tx   *sql.Tx
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, pool: db}
}

// InTx runs fn against a Repository bound to a single transaction. The
// transaction commits when fn returns nil. Calls made inside an existing
// transaction join it.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&Repository{db: tx, pool: r.pool, tx: tx})
	})
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
