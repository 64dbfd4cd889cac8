// Package apiclient is a thin JSON client for the backend's non-streaming
// endpoints: health, catalog lists, phone auth, and payment orders.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to one backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the given base URL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// SetToken installs the bearer token used on authenticated endpoints.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the currently installed bearer token, empty if none.
func (c *Client) Token() string {
	return c.token
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Detail)
}

// doJSON issues one request and decodes the response body into out.
// in may be nil for bodyless requests; out may be nil to discard.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var detail struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		return &StatusError{Code: resp.StatusCode, Detail: detail.Detail}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Ping checks backend liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/ping", nil, nil)
}

// AgentInfo is one catalog entry from the agent list endpoint.
type AgentInfo struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// Agents fetches the analyst catalog.
func (c *Client) Agents(ctx context.Context) ([]AgentInfo, error) {
	var out []AgentInfo
	if err := c.doJSON(ctx, http.MethodGet, "/hedge-fund/agents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ModelInfo is one catalog entry from the model list endpoint.
type ModelInfo struct {
	ModelName   string `json:"model_name"`
	DisplayName string `json:"display_name"`
	Provider    string `json:"provider"`
}

// Models fetches the language model catalog.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	if err := c.doJSON(ctx, http.MethodGet, "/hedge-fund/models", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
