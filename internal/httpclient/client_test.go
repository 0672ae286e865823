package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	client := Default()
	assert.Equal(t, DefaultTimeout, client.Timeout)

	ua, ok := client.Transport.(userAgent)
	require.True(t, ok)
	transport, ok := ua.next.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, DefaultResponseHeaderTimeout, transport.ResponseHeaderTimeout)
	assert.Equal(t, 32, transport.MaxIdleConnsPerHost)
	assert.True(t, transport.ForceAttemptHTTP2)
}

func TestNew_Overrides(t *testing.T) {
	client := New(Options{Timeout: 10 * time.Second, ResponseHeaderTimeout: 5 * time.Second, MaxIdleConnsPerHost: 4})
	assert.Equal(t, 10*time.Second, client.Timeout)

	transport := client.Transport.(userAgent).next.(*http.Transport)
	assert.Equal(t, 5*time.Second, transport.ResponseHeaderTimeout)
	assert.Equal(t, 4, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 8, transport.MaxIdleConns)
}

func TestUserAgent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	client := New(Options{})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Empty(t, req.Header.Get("User-Agent"), "caller's request is left untouched")

	req, err = http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom/1")
	resp, err = client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Len(t, got, 2)
	assert.Contains(t, got[0], "sefariaproxy/")
	assert.Equal(t, "custom/1", got[1])
}
