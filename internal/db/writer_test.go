package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openJournal(t *testing.T, path string) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func insertRun(ctx context.Context, tx db.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO batch_runs (id, intent, status, started_at, finished_at)
		VALUES (?, 'set_crew', 'ok', '2025-01-01T00:00:00Z', '2025-01-01T00:00:01Z')`, id)
	return err
}

func countRuns(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM batch_runs`).Scan(&n))
	return n
}

func TestWrite_CommitsOnSuccess(t *testing.T) {
	database := openJournal(t, ":memory:")
	w := db.NewSQLiteWriter(database)

	err := w.Write(context.Background(), "recording batch", func(ctx context.Context, tx db.Tx) error {
		return insertRun(ctx, tx, "r1")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countRuns(t, database))
}

func TestWrite_RollsBackOnError(t *testing.T) {
	database := openJournal(t, ":memory:")
	w := db.NewSQLiteWriter(database)
	boom := errors.New("step insert failed")

	err := w.Write(context.Background(), "recording batch", func(ctx context.Context, tx db.Tx) error {
		if err := insertRun(ctx, tx, "r1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, countRuns(t, database), "the run row goes with the failed write")
}

func TestWrite_RollsBackOnPanic(t *testing.T) {
	database := openJournal(t, ":memory:")
	w := db.NewSQLiteWriter(database)

	assert.Panics(t, func() {
		_ = w.Write(context.Background(), "recording batch", func(ctx context.Context, tx db.Tx) error {
			_ = insertRun(ctx, tx, "r1")
			panic("boom")
		})
	})
	assert.Zero(t, countRuns(t, database))

	// The connection went back to the pool with no transaction open.
	require.NoError(t, w.Write(context.Background(), "recording batch", func(ctx context.Context, tx db.Tx) error {
		return insertRun(ctx, tx, "r2")
	}))
}

func TestWrite_CancelledContextNeverBegins(t *testing.T) {
	database := openJournal(t, ":memory:")
	w := db.NewSQLiteWriter(database)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := w.Write(ctx, "pruning journal", func(context.Context, db.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pruning journal")
	assert.False(t, called)
}

func TestWrite_ConcurrentConsolesShareAJournalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	consoles := []*db.SQLiteWriter{
		db.NewSQLiteWriter(openJournal(t, path)),
		db.NewSQLiteWriter(openJournal(t, path)),
	}

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := consoles[i%len(consoles)]
			errs[i] = w.Write(context.Background(), "recording batch", func(ctx context.Context, tx db.Tx) error {
				var n int
				if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM batch_runs`).Scan(&n); err != nil {
					return err
				}
				return insertRun(ctx, tx, fmt.Sprintf("r%d", i))
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, len(errs), countRuns(t, openJournal(t, path)))
}
