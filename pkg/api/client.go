package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/achrilik/storefront/pkg/errors"
	"github.com/achrilik/storefront/pkg/logger"
	"github.com/achrilik/storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const errorBodyReadLimit int64 = 4096

var (
	errBaseURLRequired = errors.New("api base url is required")
	errLoggerRequired  = errors.New("api logger is required")
)

// TokenStore is the read surface the client needs for request authorization.
// An empty token means the request goes out unauthenticated.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Client wraps the marketplace REST API with centralized auth injection,
// bounded retries, logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries uint64
	retryDelay time.Duration
	tokens     TokenStore
	logg       *logger.Logger
	metrics    *metrics.StorefrontMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics attaches request metrics.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Config carries the transport settings for NewClient.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgent  string
}

// NewClient builds the marketplace API client.
func NewClient(cfg Config, tokens TokenStore, logg *logger.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 250 * time.Millisecond
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		maxRetries: uint64(maxRetries),
		retryDelay: retryDelay,
		tokens:     tokens,
		logg:       logg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Get issues a GET request and decodes the JSON response into dest.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

// Post issues a POST request with a JSON body and decodes the response into dest.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		payload = encoded
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	requestID := uuid.NewString()
	ctx = c.logg.WithRequestID(ctx, requestID)
	started := time.Now()

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewConstant(c.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.attempt(ctx, method, endpoint, requestID, payload, dest)
	})
	c.metrics.ObserveAPIDuration(endpointLabel(method, path), time.Since(started))
	if err != nil {
		c.logg.Error(ctx, "api request failed", err)
		return err
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, method, endpoint, requestID string, payload []byte, dest any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logg.Warn(ctx, "reading auth token failed, sending unauthenticated request")
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marketplace api unreachable"))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if dest == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response body")
		}
		return nil
	}

	apiErr := c.mapStatus(ctx, resp)
	if resp.StatusCode >= http.StatusInternalServerError {
		return retry.RetryableError(apiErr)
	}
	return apiErr
}

// mapStatus converts a non-2xx response into a typed error. A 401 also clears
// the stored token so the caller falls back to the login flow.
func (c *Client) mapStatus(ctx context.Context, resp *http.Response) error {
	message := upstreamMessage(resp)
	code := pkgerrors.CodeFromHTTPStatus(resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		if err := c.tokens.Clear(ctx); err != nil {
			c.logg.Error(ctx, "clearing stored token after 401 failed", err)
		}
	}

	return pkgerrors.New(code, message).WithDetails(map[string]any{"status": resp.StatusCode})
}

func upstreamMessage(resp *http.Response) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	if err == nil && json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fmt.Sprintf("marketplace api returned status %d", resp.StatusCode)
}

func endpointLabel(method, path string) string {
	trimmed := strings.TrimLeft(path, "/")
	if idx := strings.IndexByte(trimmed, '/'); idx > 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		trimmed = "root"
	}
	return strings.ToLower(method) + "_" + trimmed
}
