// Package client talks to a running netdiag service over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"netdiag/internal/config"
	"netdiag/internal/models"
)

const DefaultBaseURL = "http://localhost:5001"

// Client is a thin wrapper over the service API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("netdiag: %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("Client.%s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("Client.%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("Client.%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("Client.%s %s: decode: %w", method, path, err)
	}
	return nil
}

// Health checks service health
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Scan triggers an on-demand scan; no targets means the configured ones.
func (c *Client) Scan(ctx context.Context, targets []string) (models.ResultsResponse, error) {
	body := map[string][]string{}
	if len(targets) > 0 {
		body["targets"] = targets
	}
	var out models.ResultsResponse
	err := c.do(ctx, http.MethodPost, "/api/scan", body, &out)
	return out, err
}

// Results returns the latest cached scan results
func (c *Client) Results(ctx context.Context) (models.ResultsResponse, error) {
	var out models.ResultsResponse
	err := c.do(ctx, http.MethodGet, "/api/results", nil, &out)
	return out, err
}

// History returns stored results for host over the last hours
func (c *Client) History(ctx context.Context, host string, hours int) ([]models.HistoryRecord, error) {
	path := "/api/results/" + url.PathEscape(host) + "?hours=" + strconv.Itoa(hours)
	var out models.HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (c *Client) GetConfig(ctx context.Context) (config.Document, error) {
	var out config.Document
	err := c.do(ctx, http.MethodGet, "/api/config", nil, &out)
	return out, err
}

func (c *Client) UpdateConfig(ctx context.Context, p config.Patch) (config.Document, error) {
	var out config.Document
	err := c.do(ctx, http.MethodPut, "/api/config", p, &out)
	return out, err
}

// SetConfigValue updates a single setting. value is JSON, e.g. `5` or
// `["8.8.8.8"]`.
func (c *Client) SetConfigValue(ctx context.Context, key, value string) (config.Document, error) {
	raw := map[string]json.RawMessage{key: json.RawMessage(value)}
	if !json.Valid([]byte(value)) {
		return config.Document{}, fmt.Errorf("value for %s is not valid JSON: %s", key, value)
	}
	var out config.Document
	err := c.do(ctx, http.MethodPut, "/api/config", raw, &out)
	return out, err
}
