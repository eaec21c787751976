package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/me/campusfix/internal/metrics"
	"github.com/me/campusfix/internal/tokenstore"
	"github.com/me/campusfix/pkg/model"
)

// Client executes authenticated requests against the CampusFix API.
// It is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	tokens     tokenstore.Store
	metrics    *metrics.Client
	logger     *slog.Logger
	refreshes  singleflight.Group
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten with the configured timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records request and refresh outcomes on m.
func WithMetrics(m *metrics.Client) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates an API client that reads and renews credentials in tokens.
func NewClient(config Config, tokens tokenstore.Store, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config: config,
		tokens: tokens,
		logger: logger.With("component", "apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	c.httpClient.Timeout = config.Timeout
	if c.metrics == nil {
		c.metrics = metrics.New(nil)
	}
	return c
}

// Tokens returns the credential store the client reads from.
func (c *Client) Tokens() tokenstore.Store {
	return c.tokens
}

// Metrics returns the client's collectors.
func (c *Client) Metrics() *metrics.Client {
	return c.metrics
}

// Request describes one API call.
type Request struct {
	Method string // defaults to GET
	Path   string // relative to the base URL, e.g. "/auth/profile/"
	Query  url.Values
	Body   any // JSON-encoded when non-nil

	// Anonymous requests never carry the access credential and are never
	// refreshed and retried.
	Anonymous bool
}

// Response is the normalised outcome of Execute. Exactly one of Body
// (possibly empty for a 204) or Message is meaningful, as reported by OK.
type Response struct {
	StatusCode int // 0 when no response was received
	Body       json.RawMessage
	Message    string
}

// OK reports whether the call succeeded.
func (r Response) OK() bool {
	return r.Message == ""
}

// Execute performs req. If the server answers 401 to a request that
// carried a credential, the credential is refreshed once and the request
// reissued once. Execute never panics on remote failures and never returns
// a Go error: every failure is described by Response.Message.
func (c *Client) Execute(ctx context.Context, req Request) Response {
	start := time.Now()
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	logger := c.logger.With("method", method, "path", req.Path)

	var payload []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			logger.Error("marshal request body", "error", err)
			c.metrics.ObserveRequest(method, metrics.OutcomeFailure, time.Since(start))
			return Response{Message: model.MsgGeneric}
		}
		payload = data
	}

	token := ""
	if !req.Anonymous {
		token = c.tokens.Access(ctx)
	}

	target := c.url(req.Path, req.Query)
	status, body, err := c.send(ctx, method, target, payload, token)
	if err == nil && status == http.StatusUnauthorized && token != "" {
		logger.Debug("access credential rejected, refreshing")
		if renewed, ok := c.Refresh(ctx); ok {
			c.metrics.ObserveRetry()
			status, body, err = c.send(ctx, method, target, payload, renewed)
		}
	}
	if err != nil {
		logger.Warn("request failed", "error", err)
		c.metrics.ObserveRequest(method, metrics.OutcomeNetworkError, time.Since(start))
		return Response{Message: model.MsgNetwork}
	}

	resp := interpret(status, body)
	outcome := metrics.OutcomeSuccess
	if !resp.OK() {
		outcome = metrics.OutcomeFailure
		logger.Debug("request rejected", "status", status, "message", resp.Message)
	} else {
		logger.Debug("request succeeded", "status", status)
	}
	c.metrics.ObserveRequest(method, outcome, time.Since(start))
	return resp
}

// Do executes req and decodes a successful body into T.
func Do[T any](ctx context.Context, c *Client, req Request) model.Result[T] {
	resp := c.Execute(ctx, req)
	if !resp.OK() {
		return model.Fail[T](resp.Message)
	}
	var v T
	if len(resp.Body) == 0 || string(resp.Body) == "null" {
		return model.OK(v)
	}
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		c.logger.Warn("decode response", "path", req.Path, "error", err)
		return model.Fail[T](model.MsgUnexpectedResponse)
	}
	return model.OK(v)
}

// interpret turns a received status and body into a Response.
func interpret(status int, body []byte) Response {
	trimmed := bytes.TrimSpace(body)
	if status < 200 || status > 299 {
		return Response{StatusCode: status, Message: NormalizeMessage(ErrorMessage(trimmed))}
	}
	if len(trimmed) == 0 {
		return Response{StatusCode: status}
	}
	if !json.Valid(trimmed) {
		return Response{StatusCode: status, Message: model.MsgUnexpectedResponse}
	}
	return Response{StatusCode: status, Body: json.RawMessage(trimmed)}
}

func (c *Client) url(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send performs a single HTTP exchange and reads the whole body.
func (c *Client) send(ctx context.Context, method, target string, payload []byte, token string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return httpResp.StatusCode, data, nil
}
