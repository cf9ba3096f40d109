package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"contractlens/internal/domain"
)

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0
	}
	return secs
}

// TransportError classifies a failed round trip: deadlines and network
// timeouts become KindTimeout, everything else KindRequestFailed.
func TransportError(provider string, err error) error {
	wrapped := fmt.Errorf("calling %s API: %w", provider, err)
	if isTimeout(err) {
		return domain.NewChunkError(domain.KindTimeout, wrapped)
	}
	return domain.NewChunkError(domain.KindRequestFailed, wrapped)
}

// StatusError classifies a non-2xx response. 429 responses are reported as a
// RateLimitError inside a KindRequestFailed chunk error.
func StatusError(provider string, status int, body []byte, retryAfter string) error {
	baseErr := fmt.Errorf("%s API error (status %d): %s", provider, status, truncate(string(body), 500))
	if status == 429 {
		return domain.NewChunkError(domain.KindRequestFailed,
			NewRateLimitError(provider, baseErr, ParseRetryAfterHeader(retryAfter)))
	}
	return domain.NewChunkError(domain.KindInvalidResponseShape, baseErr)
}

// ShapeError reports a 2xx response whose envelope lacks the expected fields.
func ShapeError(format string, args ...any) error {
	return domain.NewChunkError(domain.KindInvalidResponseShape, fmt.Errorf(format, args...))
}

// EmptyError reports a completion with no text.
func EmptyError(provider string) error {
	return domain.NewChunkError(domain.KindEmptyResponse, fmt.Errorf("%s returned an empty completion", provider))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// truncate cuts s to maxLen runes so the preview stays valid UTF-8.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
