// internal/providers/common/httpclient.go
package common

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBackoff = 30 * time.Second

// RetryClient wraps an http.Client with the outbound retry policy shared by
// every raw HTTP call in the system: up to MaxRetries attempts, exponential
// backoff with jitter, Retry-After honored on 429, 5xx and network-level
// failures retried, other 4xx surfaced immediately.
type RetryClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

// NewRetryClient builds a client with an overall per-request timeout.
// Generation-with-browsing calls are slow, so timeouts run to minutes.
func NewRetryClient(timeout time.Duration, maxRetries int, baseDelay time.Duration, requestsPerSec float64) *RetryClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	return &RetryClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// PostJSON posts payload to url and decodes the 2xx response body into out.
// Returns *TransportError after retries are exhausted.
func (c *RetryClient) PostJSON(ctx context.Context, url string, headers map[string]string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "failed to marshal request payload")
	}

	var lastErr *TransportError
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt, lastErr); err != nil {
				return err
			}
			zap.L().Warn("retrying request",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limiter wait aborted")
		}

		tErr := c.doOnce(ctx, url, headers, body, out)
		if tErr == nil {
			return nil
		}
		if !tErr.Retryable() {
			return tErr
		}
		lastErr = tErr
	}

	return lastErr
}

func (c *RetryClient) doOnce(ctx context.Context, url string, headers map[string]string, body []byte, out interface{}) *TransportError {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Err: eris.Wrap(err, "failed to build request")}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: eris.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &TransportError{Status: resp.StatusCode, Err: eris.Wrap(err, "failed to decode response body")}
		}
		return nil
	}

	io.Copy(io.Discard, resp.Body)
	tErr := &TransportError{
		Status: resp.StatusCode,
		Err:    eris.Errorf("unexpected status %s", resp.Status),
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		tErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return tErr
}

// sleep waits out the backoff for the coming attempt. A Retry-After hint
// from the previous 429 takes precedence over computed backoff.
func (c *RetryClient) sleep(ctx context.Context, attempt int, lastErr *TransportError) error {
	delay := c.backoff(attempt)
	if lastErr != nil && lastErr.RetryAfter > 0 {
		delay = lastErr.RetryAfter
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "canceled during retry backoff")
	}
}

func (c *RetryClient) backoff(attempt int) time.Duration {
	d := c.baseDelay << uint(attempt-1)
	if d > maxBackoff {
		d = maxBackoff
	}
	quarter := int64(d) / 4
	if quarter <= 0 {
		return d
	}
	return d + time.Duration(rand.Int64N(quarter))
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
