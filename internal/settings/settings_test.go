package settings

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
	st, err := storage.NewSQLite(storage.SQLiteConfig{Path: filepath.Join(t.TempDir(), "settings.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	store, err := NewSQLiteStore(st.SQLiteDB())
	require.NoError(t, err)
	return store
}

func TestModels_DefaultModel(t *testing.T) {
	ctx := context.Background()
	m := NewModels(newSQLiteStore(t), "gpt-5.1-chat-latest")

	assert.Equal(t, "gpt-5.1-chat-latest", m.DefaultModel(ctx))

	require.NoError(t, m.SetDefaultModel(ctx, " gpt-5.2-chat-latest "))
	assert.Equal(t, "gpt-5.2-chat-latest", m.DefaultModel(ctx))

	require.NoError(t, m.SetDefaultModel(ctx, "gpt-4o"))
	assert.Equal(t, "gpt-4o", m.DefaultModel(ctx))

	require.NoError(t, m.SetDefaultModel(ctx, ""))
	assert.Equal(t, "gpt-5.1-chat-latest", m.DefaultModel(ctx))
}

func TestModels_NilStore(t *testing.T) {
	m := NewModels(nil, "gpt-4o")
	assert.Equal(t, "gpt-4o", m.DefaultModel(context.Background()))
	assert.Error(t, m.SetDefaultModel(context.Background(), "x"))
}

func TestModels_ReadErrorFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT key, value, updated_at FROM system_settings").
		WillReturnError(errors.New("connection reset"))

	m := NewModels(&SQLiteStore{db: db}, "gpt-5.1-chat-latest")
	assert.Equal(t, "gpt-5.1-chat-latest", m.DefaultModel(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSpeechModels_IndependentOfTranslation(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	translation := NewModels(store, "gpt-5.1-chat-latest")
	speech := NewSpeechModels(store, "gpt-4o-mini-tts")

	require.NoError(t, speech.SetDefaultModel(ctx, "tts-1-hd"))
	assert.Equal(t, "tts-1-hd", speech.DefaultModel(ctx))
	assert.Equal(t, "gpt-5.1-chat-latest", translation.DefaultModel(ctx))

	s, err := store.Get(ctx, KeySpeechDefaultModel)
	require.NoError(t, err)
	assert.Equal(t, "tts-1-hd", s.Value)

	require.NoError(t, speech.SetDefaultModel(ctx, ""))
	assert.Equal(t, "gpt-4o-mini-tts", speech.DefaultModel(ctx))
}
