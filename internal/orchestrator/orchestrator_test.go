package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sefariaproxy/internal/blobstore"
	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/pronunciation"
	"sefariaproxy/internal/storage"
	"sefariaproxy/internal/translationcache"
)

const (
	primaryModel  = "gpt-5.1-chat-latest"
	validEnvelope = `{"object":"response","output":[{"type":"message","content":[{"type":"output_text","text":"{\"translatedPhrase\":\"In the beginning\"}"}]}]}`
)

type staticModel string

func (m staticModel) DefaultModel(context.Context) string { return string(m) }

type staticLister []openai.Model

func (l staticLister) ListModels(context.Context) ([]openai.Model, error) { return l, nil }

func newCatalogue(ids ...string) *openai.Catalogue {
	models := make([]openai.Model, len(ids))
	for i, id := range ids {
		models[i] = openai.Model{ID: id, Created: int64(i + 1)}
	}
	return openai.NewCatalogue(staticLister(models), 0)
}

// fakeUpstream records the model of each call and answers through the
// configured functions.
type fakeUpstream struct {
	mu          sync.Mutex
	calls       []string
	inputs      []string
	lastRequest openai.ResponsesRequest
	respond     func(model string) (*openai.ResponsesResult, error)
	speak       func(model string) ([]byte, error)
}

func (f *fakeUpstream) Responses(_ context.Context, req openai.ResponsesRequest) (*openai.ResponsesResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Model)
	f.inputs = append(f.inputs, req.Input)
	f.lastRequest = req
	f.mu.Unlock()
	return f.respond(req.Model)
}

func (f *fakeUpstream) Speech(_ context.Context, req openai.SpeechRequest) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Model)
	f.inputs = append(f.inputs, req.Input)
	f.mu.Unlock()
	return f.speak(req.Model)
}

func (f *fakeUpstream) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func envelope(text string) *openai.ResponsesResult {
	raw := validEnvelope
	if text != "" {
		raw = `{"output":[{"type":"message","content":[{"type":"output_text","text":` + quote(text) + `}]}]}`
	}
	return &openai.ResponsesResult{Raw: []byte(raw), Text: openai.OutputText([]byte(raw))}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func unavailable(model string) error {
	return core.NewModelUnavailableError(openai.ProviderName, http.StatusNotFound, "The model '"+model+"' does not exist")
}

func newSQLite(t *testing.T) storage.Storage {
	t.Helper()
	st, err := storage.NewSQLite(storage.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTranslationCache(t *testing.T) (*translationcache.Cache, translationcache.Store) {
	t.Helper()
	store, err := translationcache.NewSQLiteStore(newSQLite(t).SQLiteDB())
	require.NoError(t, err)
	return translationcache.New(store), store
}

func newPronunciationCache(t *testing.T) (*pronunciation.Cache, *blobstore.MemoryStore) {
	t.Helper()
	store, err := pronunciation.NewSQLiteStore(newSQLite(t).SQLiteDB())
	require.NoError(t, err)
	blobs := blobstore.NewMemoryStore()
	return pronunciation.New(store, blobs), blobs
}

func TestCallWithFallback(t *testing.T) {
	substitute := func(context.Context, string) string { return "backup" }

	t.Run("success needs no fallback", func(t *testing.T) {
		var calls []string
		out, used, err := callWithFallback(context.Background(), "test", "primary", substitute, func(m string) (int, error) {
			calls = append(calls, m)
			return 1, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, out)
		assert.Equal(t, "primary", used)
		assert.Equal(t, []string{"primary"}, calls)
	})

	t.Run("second failure is final", func(t *testing.T) {
		var calls []string
		_, used, err := callWithFallback(context.Background(), "test", "primary", substitute, func(m string) (int, error) {
			calls = append(calls, m)
			return 0, unavailable(m)
		})
		require.Error(t, err)
		assert.Equal(t, "backup", used)
		assert.Equal(t, []string{"primary", "backup"}, calls)
	})

	t.Run("same substitute is not retried", func(t *testing.T) {
		var calls int
		_, _, err := callWithFallback(context.Background(), "test", "primary",
			func(context.Context, string) string { return "primary" },
			func(m string) (int, error) {
				calls++
				return 0, unavailable(m)
			})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("deadline is not a model failure", func(t *testing.T) {
		var calls int
		_, _, err := callWithFallback(context.Background(), "test", "primary", substitute, func(string) (int, error) {
			calls++
			return 0, core.NewProviderError(openai.ProviderName, http.StatusGatewayTimeout, context.DeadlineExceeded.Error(), context.DeadlineExceeded)
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestUpstreamError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"client status kept", core.NewAuthenticationError("openai", "bad key"), http.StatusUnauthorized, "Translation failed: bad key"},
		{"server status becomes 502", core.NewProviderError("openai", http.StatusServiceUnavailable, "down", nil), http.StatusBadGateway, "Translation failed: down"},
		{"plain error becomes 502", errors.New("boom"), http.StatusBadGateway, "Translation failed: boom"},
		{"configuration passes through", core.NewConfigurationError("OpenAI API key not configured"), http.StatusInternalServerError, "OpenAI API key not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gwErr *core.GatewayError
			require.ErrorAs(t, upstreamError("translation", "Translation failed: ", tt.err), &gwErr)
			assert.Equal(t, tt.wantStatus, gwErr.HTTPStatusCode())
			assert.Equal(t, tt.wantMsg, gwErr.Message)
		})
	}
}
