package rootmeaning

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sefariaproxy/internal/storage"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := storage.NewSQLite(storage.SQLiteConfig{Path: filepath.Join(t.TempDir(), "roots.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	store, err := NewSQLiteStore(st.SQLiteDB())
	require.NoError(t, err)
	return store
}

func TestCache_StoreThenLookup(t *testing.T) {
	ctx := context.Background()
	c := New(newSQLiteStore(t))

	_, ok := c.Lookup(ctx, "קדש")
	assert.False(t, ok)

	c.Store(ctx, "קדש", "holy, sanctify")
	meaning, ok := c.Lookup(ctx, "קדש")
	require.True(t, ok)
	assert.Equal(t, "holy, sanctify", meaning)

	c.Store(ctx, "קדש", "holy")
	meaning, _ = c.Lookup(ctx, "קדש")
	assert.Equal(t, "holy", meaning, "last writer wins")
}

func TestCache_EmptyMeaningNotStored(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	New(store).Store(ctx, "אמר", "")

	_, err := store.Get(ctx, "אמר")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_ReadErrorIsMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT root_normalized, meaning, created_at FROM root_translation_cache").
		WillReturnError(errors.New("no such table: root_translation_cache"))

	_, ok := New(&SQLiteStore{db: db}).Lookup(context.Background(), "קדש")
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_WriteErrorIsSwallowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT OR REPLACE INTO root_translation_cache").
		WillReturnError(errors.New("database is locked"))

	New(&SQLiteStore{db: db}).Store(context.Background(), "קדש", "holy")
	require.NoError(t, mock.ExpectationsWereMet())
}
