// Package httpclient builds the shared *http.Client used for upstream API calls.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"sefariaproxy/internal/version"
)

const (
	// DefaultTimeout bounds a whole upstream call, body included. Speech
	// synthesis of a long verse can take most of a minute.
	DefaultTimeout = 120 * time.Second
	// DefaultResponseHeaderTimeout bounds the wait for response headers.
	DefaultResponseHeaderTimeout = 90 * time.Second
)

// Options tunes the upstream client. Zero fields take the package defaults.
type Options struct {
	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
	// MaxIdleConnsPerHost caps kept-alive connections; everything goes to one host.
	MaxIdleConnsPerHost int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ResponseHeaderTimeout <= 0 {
		o.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	if o.MaxIdleConnsPerHost <= 0 {
		o.MaxIdleConnsPerHost = 32
	}
	return o
}

// New returns a client with a dedicated transport that identifies itself with
// a sefariaproxy User-Agent.
func New(opts Options) *http.Client {
	opts = opts.withDefaults()
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          opts.MaxIdleConnsPerHost * 2,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: userAgent{next: transport, value: "sefariaproxy/" + version.Version},
		Timeout:   opts.Timeout,
	}
}

// Default is New with zero Options.
func Default() *http.Client {
	return New(Options{})
}

// userAgent sets User-Agent on requests that do not carry one.
type userAgent struct {
	next  http.RoundTripper
	value string
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", u.value)
	return u.next.RoundTrip(clone)
}
