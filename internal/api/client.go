package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"casino-client/internal/config"
)

const (
	PathPrefix = "/api"

	HeaderIdempotencyKey = "Idempotency-Key"
)

// TokenSource supplies the bearer token for outgoing requests. An empty token
// means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func()
}

func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + PathPrefix,
		httpClient: httpClient,
		logger:     logger,
	}
}

func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	return New(cfg.BaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)
}

func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers the handler invoked on every 401 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs one round trip. body is JSON encoded when non-nil and the
// response is decoded into out when non-nil. Failed calls are never retried.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.send(ctx, method, path, query, body, out, nil)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, header http.Header) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &Error{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	c.mu.RLock()
	tokens, onUnauthorized := c.tokens, c.onUnauthorized
	c.mu.RUnlock()

	if tokens != nil {
		if token := tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &Error{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized && onUnauthorized != nil {
		onUnauthorized()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Detail: parseDetail(respBody)}
		c.logger.Info("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail))
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	return q
}

func idempotencyHeader(key string) http.Header {
	if key == "" {
		return nil
	}
	h := http.Header{}
	h.Set(HeaderIdempotencyKey, key)
	return h
}
