package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StatusError is a non-2xx response with its (trimmed) body.
type StatusError struct {
	Code int
	Body string
	// Parsed from a Retry-After header given in seconds; zero when absent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Retryable reports whether a response code is worth retrying.
func Retryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Transient is the default retry classification: network errors and
// Retryable status codes.
func Transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return Retryable(se.Code)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Client wraps an *http.Client with exponential-backoff retries.
type Client struct {
	HTTP        *http.Client
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration

	// ShouldRetry decides whether a failed attempt is retried.
	// Nil means Transient.
	ShouldRetry func(err error) bool

	log *zap.Logger
}

func NewClient(timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		HTTP:        &http.Client{Timeout: timeout},
		MaxAttempts: 4,
		Backoff:     200 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
		log:         log,
	}
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	se := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
		se.RetryAfter = time.Duration(secs) * time.Second
	}
	return nil, se
}

// delay is the wait before the attempt after a failed one: the backoff
// doubled per attempt, raised to the server's Retry-After and capped at
// MaxBackoff.
func (c *Client) delay(attempt int, err error) time.Duration {
	d := c.Backoff << (attempt - 1)
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > d {
		d = se.RetryAfter
	}
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	return d
}

// Do sends the request built by makeReq, retrying failures the client's
// ShouldRetry accepts until MaxAttempts is reached or ctx is done.
// makeReq is called once per attempt so request bodies can be rebuilt.
func (c *Client) Do(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	shouldRetry := c.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = Transient
	}
	attempts := max(c.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.send(req)
		if err == nil {
			return resp, nil
		}
		if attempt >= attempts || !shouldRetry(err) {
			return nil, err
		}

		wait := c.delay(attempt, err)
		c.log.Warn("retrying request",
			zap.String("host", req.URL.Host),
			zap.String("path", req.URL.Path),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
