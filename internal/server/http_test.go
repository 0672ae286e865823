package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sefariaproxy/internal/admin"
	"sefariaproxy/internal/blobstore"
	"sefariaproxy/internal/orchestrator"
	"sefariaproxy/internal/pronunciation"
	"sefariaproxy/internal/storage"
	"sefariaproxy/internal/translationcache"

	_ "sefariaproxy/cmd/sefariaproxy/docs"
)

func newTestServer(cfg *Config) *Server {
	tr := &fakeTranslator{res: &orchestrator.Translation{Response: json.RawMessage(testEnvelope)}}
	return New(NewHandler(tr, &fakePronouncer{}, &fakeTutor{model: "gpt-5.2"}), nil, cfg)
}

func newAdminHandler(t *testing.T) *admin.Handler {
	t.Helper()
	st, err := storage.NewSQLite(storage.SQLiteConfig{Path: filepath.Join(t.TempDir(), "server.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ts, err := translationcache.NewSQLiteStore(st.SQLiteDB())
	require.NoError(t, err)
	ps, err := pronunciation.NewSQLiteStore(st.SQLiteDB())
	require.NoError(t, err)

	return admin.NewHandler(translationcache.New(ts), pronunciation.New(ps, blobstore.NewMemoryStore()), nil, nil)
}

// request describes one call made against a Server in tests.
type request struct {
	method string
	path   string
	body   string
	auth   string
	remote string
	header map[string]string
}

func (r request) do(h http.Handler) *httptest.ResponseRecorder {
	method := r.method
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, r.path, strings.NewReader(r.body))
	if r.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth != "" {
		req.Header.Set("Authorization", r.auth)
	}
	if r.remote != "" {
		req.RemoteAddr = r.remote
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(nil)

	generated := request{path: "/health"}.do(srv).Header().Get("X-Request-ID")
	assert.Len(t, generated, 36, "a UUID is generated when the caller sends none")

	kept := request{path: "/health", header: map[string]string{"X-Request-ID": "my-custom-id"}}.do(srv)
	assert.Equal(t, "my-custom-id", kept.Header().Get("X-Request-ID"))
}

func TestMetricsRoute(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		path string
		want int
	}{
		{"disabled", Config{}, "/metrics", http.StatusNotFound},
		{"default path", Config{MetricsEnabled: true}, "/metrics", http.StatusOK},
		{"custom path", Config{MetricsEnabled: true, MetricsEndpoint: "/monitoring/metrics"}, "/monitoring/metrics", http.StatusOK},
		{"outside master key", Config{MasterKey: "secret", MetricsEnabled: true}, "/metrics", http.StatusOK},
		{"cleaned path", Config{MetricsEnabled: true, MetricsEndpoint: "/foo/../internal-metrics"}, "/internal-metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, request{path: tt.path}.do(newTestServer(&tt.cfg)).Code)
		})
	}
}

func TestMetricsRoute_ExposesRegistry(t *testing.T) {
	rec := request{path: "/metrics"}.do(newTestServer(&Config{MetricsEnabled: true}))
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPIRoutesRequireMasterKey(t *testing.T) {
	srv := newTestServer(&Config{MasterKey: "secret"})
	chat := request{method: http.MethodPost, path: "/api/openai/chat", body: `{"prompt":"x"}`}

	anonymous := chat
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(srv).Code)

	wrong := chat
	wrong.auth = "Bearer nope"
	assert.Equal(t, http.StatusUnauthorized, wrong.do(srv).Code)

	ok := chat
	ok.auth = "Bearer secret"
	rec := ok.do(srv)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get(CacheHeader))

	assert.Equal(t, http.StatusOK, request{path: "/api/openai/model", auth: "Bearer secret"}.do(srv).Code)
	assert.Equal(t, http.StatusOK, request{path: "/health"}.do(srv).Code, "health is public")
}

func TestAdminRoutes(t *testing.T) {
	handler := NewHandler(&fakeTranslator{}, &fakePronouncer{}, &fakeTutor{})
	statsPath := "/admin/api/v1/translation-cache/stats"

	t.Run("guarded by the admin key", func(t *testing.T) {
		srv := New(handler, newAdminHandler(t), &Config{MasterKey: "master", AdminKey: "admin"})

		assert.Equal(t, http.StatusOK, request{path: statsPath, auth: "Bearer admin"}.do(srv).Code)
		assert.Equal(t, http.StatusUnauthorized, request{path: statsPath, auth: "Bearer master"}.do(srv).Code)
		assert.Equal(t, http.StatusUnauthorized, request{path: statsPath}.do(srv).Code)
	})

	t.Run("absent without an admin key", func(t *testing.T) {
		srv := New(handler, newAdminHandler(t), &Config{})
		assert.Equal(t, http.StatusNotFound, request{path: statsPath}.do(srv).Code)
	})
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(&Config{RateLimit: 1, RateLimitBurst: 2})
	const client = "203.0.113.7:1234"

	var codes []int
	for range 3 {
		codes = append(codes, request{path: "/api/openai/model", remote: client}.do(srv).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	limited := request{path: "/api/openai/model", remote: client}.do(srv)
	assert.JSONEq(t, `{"error":{"type":"rate_limit_error","message":"rate limit exceeded"}}`, limited.Body.String())

	assert.Equal(t, http.StatusOK, request{path: "/health", remote: client}.do(srv).Code, "health is not limited")
	assert.Equal(t, http.StatusOK, request{path: "/api/openai/model", remote: "198.51.100.1:1"}.do(srv).Code, "limits are per client")
}

func TestBodyLimit(t *testing.T) {
	srv := newTestServer(&Config{BodySizeLimit: "1K"})
	big := `{"prompt":"` + strings.Repeat("a", 2048) + `"}`

	rec := request{method: http.MethodPost, path: "/api/openai/chat", body: big}.do(srv)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSwagger(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, request{path: "/swagger/index.html"}.do(newTestServer(&Config{})).Code)

	srv := newTestServer(&Config{SwaggerEnabled: true})

	page := request{path: "/swagger/index.html"}.do(srv)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Header().Get("Content-Type"), "text/html")

	doc := request{path: "/swagger/doc.json"}.do(srv)
	require.Equal(t, http.StatusOK, doc.Code)
	assert.Contains(t, doc.Body.String(), "sefariaproxy")
	assert.Contains(t, doc.Body.String(), "/api/openai/chat")
	assert.Contains(t, doc.Body.String(), "/api/openai/root-meaning")
}
