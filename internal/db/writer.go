package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is the view of the database a journal write gets. *sql.DB, *sql.Tx
// and *sql.Conn all satisfy it.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Tx = (*sql.DB)(nil)
	_ Tx = (*sql.Tx)(nil)
	_ Tx = (*sql.Conn)(nil)
)

// Writer runs one journal write (a recorded batch, a prune) as a single
// transaction. op names the write in errors.
type Writer interface {
	Write(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error
}

// SQLiteWriter takes the database write lock when the transaction opens
// rather than on its first insert. Two consoles sharing a journal file then
// queue on busy_timeout instead of failing with SQLITE_BUSY halfway through
// a batch record.
type SQLiteWriter struct {
	db *sql.DB
}

func NewSQLiteWriter(db *sql.DB) *SQLiteWriter {
	return &SQLiteWriter{db: db}
}

// Write commits when fn returns nil. An error or panic from fn rolls back.
func (w *SQLiteWriter) Write(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error {
	conn, err := w.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%s: acquiring connection: %w", op, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("%s: beginning write: %w", op, err)
	}

	// Rollback must run even when ctx is what failed fn.
	rollback := func() error {
		_, err := conn.ExecContext(context.Background(), "ROLLBACK")
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, conn); err != nil {
		if rbErr := rollback(); rbErr != nil {
			return fmt.Errorf("%s: rollback failed: %v (original error: %w)", op, rbErr, err)
		}
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_ = rollback()
		return fmt.Errorf("%s: committing: %w", op, err)
	}
	return nil
}
