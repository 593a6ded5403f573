// Package api is the HTTP client for the remote todo collection.
package api

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

	"github.com/Makepad-fr/tada/internal/model"
)

const (
	todosPath  = "/api/todos"
	createPath = "/api/todos/create"

	// cap on how much of an error body ends up in ServerError
	maxErrorBody = 4 << 10
)

// Client talks to the collection API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request, on top of the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client rooted at baseURL (e.g. http://localhost:8080).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// List fetches the current snapshot via GET /api/todos.
func (c *Client) List(ctx context.Context, f model.ListFilter) ([]model.Item, error) {
	q := url.Values{}
	if f.Due != nil {
		q.Set("due", strconv.FormatBool(*f.Due))
	}
	if f.Complete != nil {
		q.Set("complete", strconv.FormatBool(*f.Complete))
	}
	path := todosPath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var items []model.Item
	if err := c.do(ctx, "list", http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Create sends POST /api/todos/create. The response body is ignored.
func (c *Client) Create(ctx context.Context, req model.CreateRequest) error {
	return c.do(ctx, "create", http.MethodPost, createPath, req, nil)
}

// Update sends PATCH /api/todos/{id}. The response body is ignored.
func (c *Client) Update(ctx context.Context, id int64, req model.UpdateRequest) error {
	return c.do(ctx, "update", http.MethodPatch, itemPath(id), req, nil)
}

// Delete sends DELETE /api/todos/{id} without a body.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, itemPath(id), nil, nil)
}

func itemPath(id int64) string {
	return todosPath + "/" + strconv.FormatInt(id, 10)
}

// do runs one request. body, when non-nil, is sent as JSON; out, when non-nil,
// receives the decoded response. Every request carries the same headers.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ServerError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
