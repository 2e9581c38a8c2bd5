package lastfm

import (
	"errors"
	"fmt"
)

// Error represents a Last.fm API error.
//
// The Error type provides structured error information including
// the Last.fm error code and message. It implements error, and
// provides additional methods for retry logic.
type Error struct {
	Code    int    // Last.fm error code
	Message string // Error message from Last.fm
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
}

// Is checks if the target error is a Last.fm error with the same code.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Temporary returns true if the error is temporary and the request
// should be retried.
//
// The following Last.fm error codes are considered temporary:
//   - 11: Service Offline - temporarily unavailable
//   - 16: Service Temporarily Unavailable
//   - 29: Rate Limit Exceeded
func (e *Error) Temporary() bool {
	switch e.Code {
	case ErrCodeServiceOffline, ErrCodeTempUnavailable, ErrCodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

// Common Last.fm error codes.
const (
	ErrCodeInvalidService       = 2
	ErrCodeInvalidMethod        = 3
	ErrCodeAuthenticationFailed = 4
	ErrCodeInvalidFormat        = 5
	ErrCodeInvalidParameters    = 6
	ErrCodeInvalidResourceSpec  = 7
	ErrCodeOperationFailed      = 8
	ErrCodeInvalidSessionKey    = 9
	ErrCodeInvalidAPIKey        = 10
	ErrCodeServiceOffline       = 11
	ErrCodeSubscribersOnly      = 12
	ErrCodeInvalidSignature     = 13
	ErrCodeUnauthorizedToken    = 14
	ErrCodeExpiredToken         = 15
	ErrCodeTempUnavailable      = 16
	ErrCodeRateLimitExceeded    = 29
)

// HTTPError is returned for a non-200 response that carried no Last.fm
// error envelope.
type HTTPError struct {
	StatusCode int
	Body       string // truncated response body
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("lastfm: HTTP %d: %s", e.StatusCode, e.Body)
}

// MalformedError is returned when a 200 response cannot be decoded.
type MalformedError struct {
	Body string // truncated response body
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("lastfm: malformed response: %v: %s", e.Err, e.Body)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Predefined errors for common cases.
var (
	// ErrNoUsername is returned when a user method is called on a client
	// configured without a username.
	ErrNoUsername = errors.New("lastfm: username required")

	// ErrInvalidConfig is returned when client configuration is invalid.
	ErrInvalidConfig = errors.New("lastfm: invalid configuration")
)

// IsNotFound reports whether err is Last.fm's "invalid parameters" error,
// which the API uses for unknown users and artists.
func IsNotFound(err error) bool {
	return errors.Is(err, &Error{Code: ErrCodeInvalidParameters})
}
