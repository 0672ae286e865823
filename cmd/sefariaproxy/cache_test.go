package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sefariaproxy/internal/pronunciation"
)

func TestCacheSelection(t *testing.T) {
	tests := []struct {
		name              string
		sel               cacheSelection
		wantTranslation   bool
		wantPronunciation bool
	}{
		{"no flags selects both", cacheSelection{}, true, true},
		{"translation only", cacheSelection{translation: true}, true, false},
		{"pronunciation only", cacheSelection{pronunciation: true}, false, true},
		{"both flags", cacheSelection{translation: true, pronunciation: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTranslation, tt.sel.translations())
			assert.Equal(t, tt.wantPronunciation, tt.sel.pronunciations())
		})
	}
}

func TestClearMessage(t *testing.T) {
	assert.Equal(t, "Cleared 3 pronunciation cache entries.",
		clearMessage(pronunciation.ClearResult{DeletedCount: 3}))
	assert.Equal(t, "Cleared 3 pronunciation cache entries. 1 audio files could not be deleted.",
		clearMessage(pronunciation.ClearResult{DeletedCount: 3, BlobFailures: 1}))
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newCacheCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STORAGE_TYPE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("BLOB_TYPE", "local")
	t.Setenv("BLOB_LOCAL_DIR", filepath.Join(dir, "audio"))
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "error")

	out := runCLI(t, "stats")
	assert.Contains(t, out, "Translation cache")
	assert.Contains(t, out, "Pronunciation cache")
	assert.Contains(t, out, "Entries:   0")

	out = runCLI(t, "stats", "--pronunciation")
	assert.NotContains(t, out, "Translation cache")
	assert.Contains(t, out, "Files:     0")

	out = runCLI(t, "purge")
	assert.Equal(t, "Purged 0 entries, freed 0 B\n", out)

	out = runCLI(t, "clear", "--translation")
	assert.Equal(t, "Cleared 0 translation cache entries.\n", out)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "sefariaproxy dev")
}
