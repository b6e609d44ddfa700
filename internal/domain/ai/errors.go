package ai

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates the provider did not answer within the configured bound.
var ErrTimeout = errors.New("ai request timeout")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// UpstreamError is an error response received from the provider.
// StatusCode follows HTTP semantics even for non-HTTP transports.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrQuotaExceeded) match 429 responses.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrQuotaExceeded && e.StatusCode == 429
}

// ClientInputError rejects an upload before any provider call.
type ClientInputError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *ClientInputError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}
