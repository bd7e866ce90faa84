// Package gateway is the JSON request executor for the garage REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// NetworkErrorMessage is shown to users for transport and decode failures.
const NetworkErrorMessage = "Network error. Please check your connection."

const maxBodyBytes = 8 << 20

var (
	// ErrNetwork wraps transport failures, timeouts and undecodable bodies.
	ErrNetwork = errors.New("gateway: network error")
	// ErrNoToken is returned for authenticated calls without a session token.
	ErrNoToken = errors.New("gateway: no session token")
)

// Error is a non-2xx response from a status-strategy endpoint.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Mode selects the header set of a request.
type Mode int

const (
	// Anonymous sends only JSON content headers.
	Anonymous Mode = iota
	// Authenticated adds a bearer token from the TokenSource.
	Authenticated
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Client issues JSON requests against a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
	policy     Policy
	limiter    *rate.Limiter
}

const defaultTimeout = 15 * time.Second

type Option func(*Client)

// WithHTTPClient sends requests through hc. The client is copied, so a
// timeout set with WithTimeout never changes hc itself.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. A non-positive d keeps the HTTP client's
// own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithPolicy(p Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("gateway.New: base URL is required")
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: defaultTimeout,
		policy:  DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := http.Client{}
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.httpClient = &hc
	return c, nil
}

// SetTokenSource replaces the token source after construction, which lets the
// auth manager and the client reference each other.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

func (c *Client) Get(ctx context.Context, path string, mode Mode, out any) error {
	return c.Do(ctx, http.MethodGet, path, mode, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, mode Mode, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, mode, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, mode Mode, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, mode, body, out)
}

func (c *Client) Put(ctx context.Context, path string, mode Mode, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, mode, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, mode Mode, out any) error {
	return c.Do(ctx, http.MethodDelete, path, mode, nil, out)
}

// Do sends one request and decodes the JSON response into out (which may be
// nil). Interpretation of the status code follows the policy for path.
func (c *Client) Do(ctx context.Context, method, path string, mode Mode, body, out any) error {
	req, err := c.newRequest(ctx, method, path, mode, body)
	if err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("gateway.Client.Do: rate limit: %w: %w", ErrNetwork, err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("gateway: request failed")
		return fmt.Errorf("gateway.Client.Do: %w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("gateway.Client.Do: read body: %w: %w", ErrNetwork, err)
	}

	strategy := c.policy.StrategyFor(path)
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Stringer("strategy", strategy).
		Dur("elapsed", time.Since(start)).
		Msg("gateway: response")

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	switch strategy {
	case StrategyEnvelope:
		if len(bytes.TrimSpace(data)) == 0 {
			if ok {
				return nil
			}
			return &Error{Status: resp.StatusCode, Message: statusMessage(resp.StatusCode)}
		}
		return decode(data, out)
	default:
		if !ok {
			return &Error{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return decode(data, out)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, mode Mode, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway.Client.Do: marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("gateway.Client.Do: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if mode == Authenticated {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("gateway.Client.Do: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", ErrNoToken
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func decode(data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("gateway: decode response: %w: %w", ErrNetwork, err)
	}
	return nil
}

// errorMessage pulls a human-readable message out of an error body. It
// understands the {success, message} envelope and problem+json's detail.
func errorMessage(status int, data []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Detail != "":
			return body.Detail
		case body.Error != "":
			return body.Error
		}
	}
	return statusMessage(status)
}

func statusMessage(status int) string {
	return fmt.Sprintf("Request failed with status %d", status)
}
