// Package core provides the error taxonomy and request context helpers shared
// by the caching gateway.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies a GatewayError. It is the "type" field of every error
// body the service returns.
type ErrorType string

const (
	// ErrorTypeProvider is an upstream failure (5xx or transport).
	ErrorTypeProvider ErrorType = "provider_error"
	// ErrorTypeRateLimit is a 429 from the upstream or from the local limiter.
	ErrorTypeRateLimit ErrorType = "rate_limit_error"
	// ErrorTypeInvalidRequest is a caller mistake.
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeAuthentication is a rejected credential, ours or upstream's.
	ErrorTypeAuthentication ErrorType = "authentication_error"
	// ErrorTypeNotFound is a missing resource on this service.
	ErrorTypeNotFound ErrorType = "not_found_error"
	// ErrorTypeModelUnavailable means the upstream refused the model itself.
	// It is the only class that licenses a fallback retry.
	ErrorTypeModelUnavailable ErrorType = "model_unavailable_error"
	// ErrorTypeConfiguration means required server configuration is missing.
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeUpstreamFailed means the upstream answered with something unusable.
	ErrorTypeUpstreamFailed ErrorType = "upstream_failed_error"
)

// defaultStatus is the HTTP status used when a GatewayError carries none.
var defaultStatus = map[ErrorType]int{
	ErrorTypeProvider:         http.StatusBadGateway,
	ErrorTypeRateLimit:        http.StatusTooManyRequests,
	ErrorTypeInvalidRequest:   http.StatusBadRequest,
	ErrorTypeAuthentication:   http.StatusUnauthorized,
	ErrorTypeNotFound:         http.StatusNotFound,
	ErrorTypeModelUnavailable: http.StatusNotFound,
	ErrorTypeConfiguration:    http.StatusInternalServerError,
	ErrorTypeUpstreamFailed:   http.StatusBadGateway,
}

// GatewayError is the error every handler and upstream call surfaces.
type GatewayError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// Err is kept for logs and errors.Is; it never reaches a response body.
	Err error `json:"-"`
}

func newError(typ ErrorType, status int, provider, message string, err error) *GatewayError {
	if status == 0 {
		status = defaultStatus[typ]
	}
	return &GatewayError{Type: typ, Message: message, StatusCode: status, Provider: provider, Err: err}
}

func (e *GatewayError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// HTTPStatusCode returns StatusCode, or the default for the error type.
func (e *GatewayError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	if status, ok := defaultStatus[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the inner object of ErrorBody.
type ErrorDetail struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// ToJSON returns the response body for e.
func (e *GatewayError) ToJSON() ErrorBody {
	return ErrorBody{Error: ErrorDetail{Type: e.Type, Message: e.Message}}
}

// WithMessagePrefix returns a copy of e whose message starts with prefix.
func (e *GatewayError) WithMessagePrefix(prefix string) *GatewayError {
	cp := *e
	cp.Message = prefix + cp.Message
	return &cp
}

// NewProviderError reports an upstream failure with the given status.
func NewProviderError(provider string, statusCode int, message string, err error) *GatewayError {
	return newError(ErrorTypeProvider, statusCode, provider, message, err)
}

func NewRateLimitError(provider string, message string) *GatewayError {
	return newError(ErrorTypeRateLimit, 0, provider, message, nil)
}

func NewInvalidRequestError(message string, err error) *GatewayError {
	return newError(ErrorTypeInvalidRequest, 0, "", message, err)
}

// NewInvalidRequestErrorWithStatus is NewInvalidRequestError with a 4xx other than 400.
func NewInvalidRequestErrorWithStatus(statusCode int, message string, err error) *GatewayError {
	return newError(ErrorTypeInvalidRequest, statusCode, "", message, err)
}

func NewAuthenticationError(provider string, message string) *GatewayError {
	return newError(ErrorTypeAuthentication, 0, provider, message, nil)
}

func NewNotFoundError(message string) *GatewayError {
	return newError(ErrorTypeNotFound, 0, "", message, nil)
}

// NewModelUnavailableError keeps the upstream status (404 or 400); zero means 404.
func NewModelUnavailableError(provider string, statusCode int, message string) *GatewayError {
	return newError(ErrorTypeModelUnavailable, statusCode, provider, message, nil)
}

func NewConfigurationError(message string) *GatewayError {
	return newError(ErrorTypeConfiguration, 0, "", message, nil)
}

func NewUpstreamFailedError(provider string, message string) *GatewayError {
	return newError(ErrorTypeUpstreamFailed, 0, provider, message, nil)
}

// IsModelUnavailable reports whether err is, or wraps, a model-unavailable
// GatewayError.
func IsModelUnavailable(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Type == ErrorTypeModelUnavailable
}

// modelUnavailableMarkers appear in the code or message OpenAI-style APIs
// return for a model that cannot be used. A match also needs "model".
var modelUnavailableMarkers = []string{
	"model_not_found",
	"invalid model",
	"invalid_model",
	"does not exist",
	"not found",
	"unknown model",
}

func looksLikeModelUnavailable(code, message string) bool {
	text := strings.ToLower(code + " " + message)
	if !strings.Contains(text, "model") {
		return false
	}
	for _, marker := range modelUnavailableMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

type upstreamErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ParseProviderError classifies a non-2xx upstream response. The message is
// taken from {"error":{"message"}} when present, else the raw body. Upstream
// 5xx become 502.
func ParseProviderError(provider string, statusCode int, body []byte, originalErr error) *GatewayError {
	message, code := string(body), ""
	var parsed upstreamErrorBody
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		message, code = parsed.Error.Message, parsed.Error.Code
	}

	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return newError(ErrorTypeAuthentication, statusCode, provider, message, originalErr)
	case statusCode == http.StatusTooManyRequests:
		return newError(ErrorTypeRateLimit, statusCode, provider, message, originalErr)
	case statusCode == http.StatusNotFound && (code == "" || looksLikeModelUnavailable(code, message)),
		statusCode == http.StatusBadRequest && looksLikeModelUnavailable(code, message):
		return newError(ErrorTypeModelUnavailable, statusCode, provider, message, originalErr)
	case statusCode >= 400 && statusCode < 500:
		return newError(ErrorTypeInvalidRequest, statusCode, provider, message, originalErr)
	}
	return newError(ErrorTypeProvider, http.StatusBadGateway, provider, message, originalErr)
}
