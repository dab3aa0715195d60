// Package llm sends extracted document text to the remote analysis service.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
)

// Client handles communication with the remote analysis API
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// Request represents the API request structure
type Request struct {
	Text string `json:"text"`
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each call. Zero keeps the HTTP client's default. The
// client set by WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// NewClient creates a new analysis client for apiURL authenticated with apiKey.
func NewClient(apiURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze posts text to the analysis endpoint once.
//
// A 200 response yields its JSON body untouched. Any other status, or a 200
// whose body is not JSON, yields an error descriptor carrying the raw body.
// Only failures to reach the service are returned as errors.
func (c *Client) Analyze(ctx context.Context, text string) (domain.Analysis, error) {
	body, err := json.Marshal(Request{Text: text})
	if err != nil {
		return domain.Analysis{}, domain.APIError("Failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return domain.Analysis{}, domain.ConfigError("Failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Analysis{}, domain.TransportError("Failed to send request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Analysis{}, domain.TransportError("Failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK || !json.Valid(respBody) {
		return domain.FailedAnalysis(domain.LabelAnalysisFailed, string(respBody)), nil
	}

	return domain.PayloadAnalysis(json.RawMessage(respBody)), nil
}
