// Package openai is the upstream client for the OpenAI Responses, Speech and
// Models endpoints, plus the model catalogue used for fallback selection.
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/llmclient"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// ProviderName labels errors raised by this client.
	ProviderName = "openai"

	DefaultTTSModel        = "gpt-4o-mini-tts"
	DefaultTTSVoice        = "alloy"
	DefaultTTSInstructions = "Pronounce this word in Hebrew. Speak clearly and naturally."
)

// Config holds the upstream connection settings.
type Config struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
}

// Client calls the OpenAI API.
type Client struct {
	apiKey string
	client *llmclient.Client
}

// New creates a client. A client without an API key is valid; every call on
// it fails with a configuration error.
func New(cfg Config, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	clientCfg := llmclient.DefaultConfig(ProviderName, baseURL)
	if cfg.MaxRetries > 0 {
		clientCfg.MaxRetries = cfg.MaxRetries
	}

	c := &Client{apiKey: cfg.APIKey}
	c.client = llmclient.New(httpClient, clientCfg, c.setHeaders)
	return c
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept-Encoding", "br")

	// OpenAI rejects non-ASCII or overlong client request IDs with 400.
	if requestID := core.GetRequestID(req.Context()); requestID != "" && isValidClientRequestID(requestID) {
		req.Header.Set("X-Client-Request-Id", requestID)
	}
}

func isValidClientRequestID(id string) bool {
	if len(id) > 512 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] > 127 {
			return false
		}
	}
	return true
}

func (c *Client) checkConfigured() error {
	if c.apiKey == "" {
		return core.NewConfigurationError("OpenAI API key not configured")
	}
	return nil
}

// Reasoning configures reasoning effort on reasoning-capable models.
type Reasoning struct {
	Effort string `json:"effort"`
}

// TextOptions configures output verbosity.
type TextOptions struct {
	Verbosity string `json:"verbosity"`
}

// ResponsesRequest is the body of POST /responses.
type ResponsesRequest struct {
	Model           string       `json:"model"`
	Instructions    string       `json:"instructions,omitempty"`
	Input           string       `json:"input"`
	MaxOutputTokens int          `json:"max_output_tokens,omitempty"`
	Reasoning       *Reasoning   `json:"reasoning,omitempty"`
	Text            *TextOptions `json:"text,omitempty"`
}

// ResponsesResult is a Responses API envelope kept verbatim.
type ResponsesResult struct {
	Raw json.RawMessage
	// Text is the concatenated output_text content, trimmed.
	Text string
}

// Responses creates a model response.
func (c *Client) Responses(ctx context.Context, req ResponsesRequest) (*ResponsesResult, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	resp, err := c.client.DoRaw(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/responses",
		Body:     req,
	})
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, core.NewUpstreamFailedError(ProviderName, "invalid JSON in response envelope")
	}
	return &ResponsesResult{
		Raw:  json.RawMessage(resp.Body),
		Text: strings.TrimSpace(OutputText(resp.Body)),
	}, nil
}

// OutputText concatenates the output_text parts of message items in a
// Responses API envelope.
func OutputText(envelope []byte) string {
	var b strings.Builder
	gjson.GetBytes(envelope, "output").ForEach(func(_, item gjson.Result) bool {
		if item.Get("type").String() != "message" {
			return true
		}
		item.Get("content").ForEach(func(_, part gjson.Result) bool {
			if part.Get("type").String() == "output_text" {
				b.WriteString(part.Get("text").String())
			}
			return true
		})
		return true
	})
	return b.String()
}

// SpeechRequest is the body of POST /audio/speech.
type SpeechRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Input        string `json:"input"`
	Instructions string `json:"instructions,omitempty"`
}

// Speech synthesizes audio and returns the encoded bytes (mp3 by default).
func (c *Client) Speech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	if req.Voice == "" {
		req.Voice = DefaultTTSVoice
	}
	resp, err := c.client.DoRaw(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/audio/speech",
		Body:     req,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, core.NewUpstreamFailedError(ProviderName, "empty audio response")
	}
	return resp.Body, nil
}

// Model is one entry of GET /models.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ListModels returns the models visible to the API key.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	var list struct {
		Data []Model `json:"data"`
	}
	err := c.client.Do(ctx, llmclient.Request{
		Method:   http.MethodGet,
		Endpoint: "/models",
	}, &list)
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}
