package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(time.Second, nil)
	c.Backoff = time.Millisecond
	return c, srv.URL
}

func get(ctx context.Context, url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	c, url := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	resp, err := c.Do(context.Background(), get(context.Background(), url))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestDoUsesCallerClassification(t *testing.T) {
	var calls atomic.Int32
	c, url := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.ShouldRetry = func(error) bool { return false }

	_, err := c.Do(context.Background(), get(context.Background(), url))
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want 503 StatusError", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestDoParsesRetryAfter(t *testing.T) {
	c, url := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.MaxAttempts = 1

	_, err := c.Do(context.Background(), get(context.Background(), url))
	var se *StatusError
	if !errors.As(err, &se) || se.RetryAfter != 2*time.Second {
		t.Fatalf("err = %#v, want RetryAfter 2s", err)
	}
}

func TestDelay(t *testing.T) {
	c := &Client{Backoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	tests := []struct {
		name    string
		attempt int
		err     error
		want    time.Duration
	}{
		{"first", 1, errors.New("x"), 100 * time.Millisecond},
		{"doubles", 3, errors.New("x"), 400 * time.Millisecond},
		{"capped", 6, errors.New("x"), time.Second},
		{"retry after wins", 1, &StatusError{Code: 429, RetryAfter: 800 * time.Millisecond}, 800 * time.Millisecond},
		{"retry after capped", 1, &StatusError{Code: 429, RetryAfter: time.Minute}, time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.delay(tc.attempt, tc.err); got != tc.want {
				t.Fatalf("delay = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDoStopsOnCanceledContext(t *testing.T) {
	var calls atomic.Int32
	c, url := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.Backoff = time.Hour
	c.MaxBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, get(ctx, url))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestTransient(t *testing.T) {
	if !Transient(&StatusError{Code: http.StatusServiceUnavailable}) {
		t.Errorf("503 should be transient")
	}
	if Transient(&StatusError{Code: http.StatusNotFound}) {
		t.Errorf("404 should not be transient")
	}
	if Transient(errors.New("plain")) {
		t.Errorf("plain error should not be transient")
	}
}
