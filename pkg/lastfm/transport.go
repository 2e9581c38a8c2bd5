package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
)

// apiErrorBody is the JSON error envelope Last.fm returns for failed calls,
// sometimes with status 200.
type apiErrorBody struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// maxDiagnosticLen caps how much of a response body is carried in errors.
const maxDiagnosticLen = 300

// call makes a GET request to the Last.fm API with retry logic and returns
// the raw JSON body.
//
// It handles:
// - Query construction (method, api_key, format=json)
// - Rate limiting shared by every call on the client
// - Error envelopes and HTTP status codes
// - Retry with exponential backoff for 5xx, network and temporary API errors
// - Context cancellation
func (c *Client) call(ctx context.Context, method string, params map[string]string) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("method", method)
	query.Set("api_key", c.apiKey)
	query.Set("format", "json")

	endpoint := c.baseURL + "?" + query.Encode()

	var lastErr error
	backoff := 1 * time.Second

	for i := 0; i < c.maxRetries; i++ {
		c.logDebugf("lastfm: calling %s (attempt %d/%d)", method, i+1, c.maxRetries)

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "scrobbledash/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if shouldRetryNetworkError(err) && i < c.maxRetries-1 {
				c.logDebugf("lastfm: network error, retrying: %v", err)
				if !sleep(ctx, backoff) {
					return nil, ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return nil, fmt.Errorf("http request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		// An error envelope wins over the status code: Last.fm reports
		// "artist not found" as a 404 carrying code 6.
		if apiErr := parseAPIError(body); apiErr != nil {
			if apiErr.Temporary() && i < c.maxRetries-1 {
				c.logDebugf("lastfm: temporary error, retrying: %v", apiErr)
				lastErr = apiErr
				if !sleep(ctx, backoff) {
					return nil, ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return nil, apiErr
		}

		if resp.StatusCode >= 500 {
			lastErr = &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxDiagnosticLen)}
			if i < c.maxRetries-1 {
				c.logDebugf("lastfm: server error, retrying: %v", lastErr)
				if !sleep(ctx, backoff) {
					return nil, ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxDiagnosticLen)}
		}

		c.logDebugf("lastfm: %s succeeded", method)
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// decode unmarshals a successful response body, reporting malformed payloads
// with a truncated copy of the body.
func decode(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &MalformedError{Body: truncate(string(body), maxDiagnosticLen), Err: err}
	}
	return nil
}

// parseAPIError returns the API error in body, or nil if body is not an
// error envelope.
func parseAPIError(body []byte) *Error {
	var env apiErrorBody
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.Error == 0 {
		return nil
	}
	return &Error{Code: env.Error, Message: env.Message}
}

// shouldRetryNetworkError checks if a network error is retryable.
func shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff calculates the next backoff duration with exponential increase.
// Maximum backoff is capped at 30 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
