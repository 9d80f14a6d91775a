package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB returns a fresh in-memory database, closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codelab.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, db.Close())

	// Reopening runs migrations again against existing tables.
	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.Migrate())
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var on int
	require.NoError(t, db.conn.GetContext(context.Background(), &on, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, on)
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.conn.ExecContext(ctx, `INSERT INTO exercises (id, title) VALUES ('a', 'one')`)
	require.NoError(t, err)
	_, err = db.conn.ExecContext(ctx, `INSERT INTO exercises (id, title) VALUES ('a', 'two')`)
	require.Error(t, err)

	assert.True(t, isUniqueViolation(err))
	assert.False(t, isForeignKeyViolation(err))
	assert.False(t, isUniqueViolation(nil))
}
