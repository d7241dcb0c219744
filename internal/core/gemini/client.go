package gemini

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// liveAction is the generation method a model must list to accept Live sessions.
const liveAction = "bidiGenerateContent"

// ErrNotLive is returned by Client.Check for models without Live support.
var ErrNotLive = errors.New("gemini: model does not support live sessions")

// ModelInfo is the subset of model metadata the bridge reports.
type ModelInfo struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name"`
	InputTokenLimit  int32    `json:"input_token_limit"`
	SupportedActions []string `json:"supported_actions"`
}

// SupportsLive reports whether the model accepts BidiGenerateContent.
func (m ModelInfo) SupportsLive() bool {
	for _, a := range m.SupportedActions {
		if a == liveAction {
			return true
		}
	}
	return false
}

// Client talks to the REST side of the Gemini API.
type Client struct {
	c     *genai.Client
	model string
}

func New(apiKey, model string) (*Client, error) {
	return newClient(apiKey, model, "")
}

// newClient builds a Client against baseURL; empty means the public endpoint.
func newClient(apiKey, model, baseURL string) (*Client, error) {
	tr := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}
	hc := &http.Client{Transport: tr, Timeout: 30 * time.Second}
	reqTimeout := 15 * time.Second
	cl, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: "v1beta",
			Timeout:    &reqTimeout,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Client{c: cl, model: model}, nil
}

func (g *Client) Close() error { return nil }

// Model fetches metadata for the configured model, retrying transient failures.
func (g *Client) Model(ctx context.Context) (*ModelInfo, error) {
	var lastErr error
	for i := 0; i < 3; i++ {
		m, err := g.c.Models.Get(ctx, g.model, nil)
		if err == nil {
			return &ModelInfo{
				Name:             m.Name,
				DisplayName:      m.DisplayName,
				InputTokenLimit:  m.InputTokenLimit,
				SupportedActions: m.SupportedActions,
			}, nil
		}
		lastErr = err
		if !retriable(err) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(300*(i+1)) * time.Millisecond):
		}
	}
	return nil, lastErr
}

// Check fails unless the configured model can serve a Live session.
func (g *Client) Check(ctx context.Context) (*ModelInfo, error) {
	m, err := g.Model(ctx)
	if err != nil {
		return nil, err
	}
	if !m.SupportsLive() {
		return m, fmt.Errorf("%w: %s", ErrNotLive, m.Name)
	}
	return m, nil
}

func retriable(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected EOF") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "RST_STREAM") ||
		strings.Contains(s, "connection reset")
}
