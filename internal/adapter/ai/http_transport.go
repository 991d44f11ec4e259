package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/govguard/govguard/internal/ports"
)

// maxErrorBodyBytes bounds how much of a failed reply is read for its error detail
const maxErrorBodyBytes = 64 << 10

// HTTPTransport implements ports.ProxyTransport over net/http
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport for the proxy at baseURL.
// timeout bounds every round-trip; zero means 60 seconds.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewHTTPTransportWithClient uses the given client as is
func NewHTTPTransportWithClient(baseURL string, client *http.Client) *HTTPTransport {
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// PostJSON posts body as JSON to path and decodes a 2xx reply into out
func (t *HTTPTransport) PostJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call analysis proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		var errBody ports.ProxyErrorBody
		_ = json.Unmarshal(raw, &errBody)
		return &ports.ProxyStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     errBody.Error,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode proxy response: %w", err)
	}
	return nil
}
