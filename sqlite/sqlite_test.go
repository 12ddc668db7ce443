package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/refdex/refdex/sqlite"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates schema on first open", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(":memory:")
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		// Verify tables exist by querying them
		ctx := context.Background()

		var manifestCount int
		err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM manifest_entries").Scan(&manifestCount)
		require.NoError(t, err)

		var indexCount int
		err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_entries").Scan(&indexCount)
		require.NoError(t, err)
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/db.sqlite")
		err := db.Open()
		require.Error(t, err)
	})

	t.Run("enables WAL mode for file-based databases", func(t *testing.T) {
		t.Parallel()

		dbPath := t.TempDir() + "/test.db"
		db := sqlite.NewDB(dbPath)
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		ctx := context.Background()
		var journalMode string
		err = db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		require.Equal(t, "wal", journalMode)
	})

	t.Run("fails on corrupt database file without recreating it", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "corrupt.db")
		garbage := []byte("this is not a sqlite database")
		require.NoError(t, os.WriteFile(dbPath, garbage, 0o644))

		db := sqlite.NewDB(dbPath)
		err := db.Open()
		require.Error(t, err)

		// The corrupt file must be left in place for inspection.
		content, readErr := os.ReadFile(dbPath)
		require.NoError(t, readErr)
		require.Equal(t, garbage, content)
	})
}
