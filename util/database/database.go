package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Tx is the slice of *sql.Tx the repositories need. Services begin a Tx and
// hand it down; tests substitute a fake.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Commit() error
	Rollback() error
}

// Beginner starts transactions. *DB satisfies it in production.
type Beginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}

type DB struct {
	*sql.DB
}

func New(dsn string) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{DB: db}, nil
}

func (d *DB) BeginTx(ctx context.Context) (Tx, error) {
	return d.DB.BeginTx(ctx, nil)
}

// WithinTx runs fn inside one transaction, rolling back on error. Every core
// mutation goes through here so row locks are always taken under a single
// transaction, in the fixed order: reseller row, then product/stock rows,
// then order row.
func WithinTx(ctx context.Context, db Beginner, fn func(tx Tx) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
