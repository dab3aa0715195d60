// Package client talks to a running file analyzer server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
)

// AnalyzePath is the upload endpoint, in the form the browser client uses.
const AnalyzePath = "/analyze/"

// ServerError is a non-200 answer from the server.
type ServerError struct {
	StatusCode int
	Message    string // the "error" field, or the raw body when it has none
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client uploads documents to a file analyzer server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Analyze uploads files as "files" parts and decodes the batch response.
func (c *Client) Analyze(ctx context.Context, files []domain.UploadedFile) (*domain.BatchResponse, error) {
	body, contentType, err := encodeFiles(files)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, body)
	if err != nil {
		return nil, domain.ConfigError("Failed to build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.TransportError("Failed to reach server", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.TransportError("Failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	var batch domain.BatchResponse
	if err := json.Unmarshal(respBody, &batch); err != nil {
		return nil, domain.APIError("Failed to decode response", err)
	}
	return &batch, nil
}

func encodeFiles(files []domain.UploadedFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		w, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, "", domain.IOError("Failed to encode upload", err)
		}
		if _, err := w.Write(f.Content); err != nil {
			return nil, "", domain.IOError("Failed to encode upload", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", domain.IOError("Failed to encode upload", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
