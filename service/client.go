package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"moviebook-cli/logging"
)

const (
	apiPath             = "/mba/api/v1"
	defaultBackendURL   = "http://localhost:3000"
	defaultUserAgent    = "moviebook-cli"
	defaultTimeout      = 12 * time.Second
	defaultMaxAttempts  = 3
	defaultRetryBase    = 200 * time.Millisecond
	defaultRetryCap     = 1200 * time.Millisecond
	defaultRate         = 10
	defaultBurst        = 5
	tokenHeader         = "x-access-token"
	requestIDHeader     = "X-Request-Id"
	maxErrorBodySnippet = 8 << 10
)

// ErrServiceUnavailable is returned while the write circuit breaker is open.
var ErrServiceUnavailable = errors.New("booking service is temporarily unavailable, try again shortly")

// Client wraps HTTP access to the movie booking API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL       string
	HTTPClient    *http.Client
	Timeout       time.Duration
	MaxAttempts   int
	RetryBase     time.Duration
	RetryCap      time.Duration
	RatePerSecond float64
	Burst         int
	Breaker       BreakerOptions
}

// BreakerOptions tunes the circuit breaker that guards writes.
type BreakerOptions struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Action     string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "moviebook api error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Action != "" {
		return fmt.Sprintf("%s: %d", e.Action, e.StatusCode)
	}
	return fmt.Sprintf("moviebook api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports a 401 or 403 from the API.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized) || hasStatus(err, http.StatusForbidden)
}

// IsServerError reports a 5xx from the API.
func IsServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func hasStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}

// NewClientWithOptions creates a client from explicit settings.
func NewClientWithOptions(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBackendURL
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	retryBase := opts.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	retryCap := opts.RetryCap
	if retryCap <= 0 {
		retryCap = defaultRetryCap
	}

	limit := rate.Limit(opts.RatePerSecond)
	if opts.RatePerSecond <= 0 {
		limit = rate.Limit(defaultRate)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = defaultBurst
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     base + apiPath,
		userAgent:   defaultUserAgent,
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
		retryCap:    retryCap,
		limiter:     rate.NewLimiter(limit, burst),
		breaker:     newBreaker(opts.Breaker),
	}
}

func newBreaker(opts BreakerOptions) *gobreaker.CircuitBreaker[[]byte] {
	failures := opts.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "moviebook-writes",
		MaxRequests: opts.MaxRequests,
		Interval:    opts.Interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Client errors are the caller's problem, not the backend's.
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("component", "service").Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

// BaseURL returns the API root, including the version path.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, endpoint, token, action string, out any) error {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		c.setHeaders(req, token)

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			apiErr := newAPIError(res, endpoint, action)
			_ = res.Body.Close()
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		body, err := io.ReadAll(res.Body)
		_ = res.Body.Close()
		if err != nil {
			return fmt.Errorf("read response from %s: %w", endpoint, err)
		}
		if err := decodeBody(body, out); err != nil {
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

// send performs a single write. Writes are never retried; they run through
// the circuit breaker so a failing backend is not hammered.
func (c *Client) send(ctx context.Context, method, endpoint, token, action string, in any) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	requestID := uuid.NewString()
	log := logging.With().Str("component", "service").Str("request_id", requestID).
		Str("method", method).Str("endpoint", endpoint).Logger()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		c.setHeaders(req, token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(requestIDHeader, requestID)

		res, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer res.Body.Close()

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			return nil, newAPIError(res, endpoint, action)
		}
		return io.ReadAll(res.Body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Warn().Err(err).Msg("write rejected by circuit breaker")
			return nil, ErrServiceUnavailable
		}
		log.Debug().Err(err).Msg("write failed")
		return nil, err
	}
	log.Debug().Int("bytes", len(body)).Msg("write ok")
	return body, nil
}

func (c *Client) sendJSON(ctx context.Context, method, endpoint, token, action string, in, out any) error {
	body, err := c.send(ctx, method, endpoint, token, action, in)
	if err != nil {
		return err
	}
	if err := decodeBody(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func newAPIError(res *http.Response, endpoint, action string) *APIError {
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySnippet))
	body := strings.TrimSpace(string(snippet))
	return &APIError{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Endpoint:   endpoint,
		Action:     action,
		Message:    errorMessage(snippet),
		Body:       body,
	}
}

// errorMessage pulls a human readable message out of an error body:
// "message" first, then "err".
func errorMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Err     json.RawMessage `json:"err"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{payload.Message, payload.Err} {
		var s string
		if len(raw) > 0 && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// decodeBody decodes body into out, unwrapping a {"data": ...} envelope when present.
func decodeBody(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if out == nil || len(body) == 0 {
		return nil
	}
	if raw, ok := unwrapData(body); ok {
		body = raw
	}
	return json.Unmarshal(body, out)
}

func unwrapData(body []byte) (json.RawMessage, bool) {
	if len(body) == 0 || body[0] != '{' {
		return nil, false
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false
	}
	return data, true
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
