package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/alexanderramin/fieldops/internal/db"
)

// NewJournalDB opens a migrated in-memory journal and its writer. Both go
// away when the test finishes.
func NewJournalDB(t testing.TB) (*sql.DB, *db.SQLiteWriter) {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("opening journal database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, db.NewSQLiteWriter(database)
}

// FailingWriter fails the Nth statement that mentions Table, so a journal
// write can be cut off after some of its rows went in.
type FailingWriter struct {
	db.Writer
	Table string
	Nth   int
	Err   error
}

func (w *FailingWriter) Write(ctx context.Context, op string, fn func(ctx context.Context, tx db.Tx) error) error {
	return w.Writer.Write(ctx, op, func(ctx context.Context, tx db.Tx) error {
		return fn(ctx, &failingTx{Tx: tx, w: w})
	})
}

type failingTx struct {
	db.Tx
	w    *FailingWriter
	seen int
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.w.Table) {
		f.seen++
		if f.seen == f.w.Nth {
			return nil, f.w.Err
		}
	}
	return f.Tx.ExecContext(ctx, query, args...)
}
