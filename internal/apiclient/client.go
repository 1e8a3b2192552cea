// Package apiclient is the HTTP client for the tournament backend.
//
// Every outbound call runs through an ordered chain of request and response
// interceptors. Bind attaches a session store: its bearer interceptor reads the
// store at dispatch time, and 401 responses invalidate the session whose token
// the rejected request carried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/tournax/internal/model"
)

// maxResponseSize bounds how much of a response body is read
const maxResponseSize = 4 << 20

// SessionSource is the view of a session store the client needs
type SessionSource interface {
	Snapshot() model.State
	Invalidate(ctx context.Context, token string) bool
	Subscribe(fn func(model.State)) (unsubscribe func())
}

// Client is an HTTP client for the tournament backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.RWMutex
	nextID        int
	requestChain  chain[RequestInterceptor]
	responseChain chain[ResponseInterceptor]

	bindMu      sync.Mutex
	store       SessionSource
	bearerID    int
	rejectID    int
	unsubscribe func()
}

// New creates a client for baseURL. A nil httpClient gets a 30 second timeout.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Bind attaches store to the client, replacing any previous binding.
// The bearer interceptor is re-registered on every session change, ejecting
// the previous one first, so at most one is ever registered.
func (c *Client) Bind(store SessionSource) {
	c.Close()

	c.bindMu.Lock()
	defer c.bindMu.Unlock()

	c.store = store
	c.bearerID = c.UseRequest(bearerInterceptor(store))
	c.rejectID = c.UseResponse(rejectionInterceptor(store))
	c.unsubscribe = store.Subscribe(func(model.State) {
		c.rebindBearer(store)
	})
}

func (c *Client) rebindBearer(store SessionSource) {
	c.bindMu.Lock()
	defer c.bindMu.Unlock()

	if c.store != store {
		return
	}
	c.EjectRequest(c.bearerID)
	c.bearerID = c.UseRequest(bearerInterceptor(store))
}

// Close detaches the bound store, ejecting its interceptors and ending the subscription
func (c *Client) Close() {
	c.bindMu.Lock()
	defer c.bindMu.Unlock()

	if c.store == nil {
		return
	}
	c.unsubscribe()
	c.EjectRequest(c.bearerID)
	c.EjectResponse(c.rejectID)
	c.store = nil
	c.unsubscribe = nil
}

func bearerInterceptor(store SessionSource) RequestInterceptor {
	return func(req *http.Request) error {
		if req.Header.Get("Authorization") != "" {
			return nil
		}
		if token := store.Snapshot().Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

func rejectionInterceptor(store SessionSource) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response) error {
		if resp.StatusCode != http.StatusUnauthorized {
			return nil
		}
		rejected := &TokenRejectedError{Method: req.Method, Path: req.URL.Path}
		if token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer "); ok && token != "" {
			rejected.Invalidated = store.Invalidate(req.Context(), token)
		}
		return rejected
	}
}

// NewRequest builds a request for path with body encoded as JSON.
// Headers set on the returned request take precedence over interceptors.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends a JSON request and decodes the response into result (if non-nil)
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.Send(req, result)
}

// Send runs req through the interceptor chain exactly once.
// A 401 yields a *TokenRejectedError, any other non-2xx an *APIError.
func (c *Client) Send(req *http.Request, result any) error {
	requestInterceptors, responseInterceptors := c.interceptors()

	for _, intercept := range requestInterceptors {
		if err := intercept(req); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend call",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	for _, intercept := range responseInterceptors {
		if err := intercept(req, resp); err != nil {
			return err
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &TokenRejectedError{Method: req.Method, Path: req.URL.Path}
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
