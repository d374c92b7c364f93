package git

import (
	"fmt"
	"strings"
)

// Typed clone failures, so callers can classify without string parsing.
type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type UnsupportedProtocolError struct {
	Op, URL string
	Err     error
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("%s unsupported protocol %s: %v", e.Op, e.URL, e.Err)
}
func (e *UnsupportedProtocolError) Unwrap() error { return e.Err }

type RateLimitError struct {
	Op, URL string
	Err     error
}

func (e *RateLimitError) Error() string { return fmt.Sprintf("%s rate limited %s: %v", e.Op, e.URL, e.Err) }
func (e *RateLimitError) Unwrap() error { return e.Err }

type NetworkTimeoutError struct {
	Op, URL string
	Err     error
}

func (e *NetworkTimeoutError) Error() string {
	return fmt.Sprintf("%s network timeout %s: %v", e.Op, e.URL, e.Err)
}
func (e *NetworkTimeoutError) Unwrap() error { return e.Err }

// classifyCloneError wraps go-git errors into typed failures.
func classifyCloneError(url string, err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		return &AuthError{Op: "clone", URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist") || strings.Contains(l, "no such file"):
		return &NotFoundError{Op: "clone", URL: url, Err: err}
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		return &UnsupportedProtocolError{Op: "clone", URL: url, Err: err}
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		return &RateLimitError{Op: "clone", URL: url, Err: err}
	case strings.Contains(l, "timeout") || strings.Contains(l, "i/o timeout"):
		return &NetworkTimeoutError{Op: "clone", URL: url, Err: err}
	}
	return fmt.Errorf("failed to clone repository %s: %w", url, err)
}
