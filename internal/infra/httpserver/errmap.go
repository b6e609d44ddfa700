package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/bryanwahyu/image-caption/internal/domain/ai"
	domain "github.com/bryanwahyu/image-caption/internal/domain/caption"
	"github.com/bryanwahyu/image-caption/internal/middleware"
	"github.com/bryanwahyu/image-caption/internal/redact"
)

// Error classes recorded in logs, metrics and the audit trail.
const (
	classInput            = "input"
	classUpstreamAuth     = "upstream_auth"
	classRateLimited      = "rate_limited"
	classUpstreamRequest  = "upstream_bad_request"
	classUpstream         = "upstream"
	classInvalidStructure = "invalid_structure"
	classTimeout          = "timeout"
	classInternal         = "internal"
)

type mappedError struct {
	Status int
	Body   middleware.ErrorBody
	Class  string
}

// mapError turns any analyze failure into the client facing status and body.
// Upstream text is passed through redaction; nothing else from err leaks.
func mapError(err error, secrets []string) mappedError {
	var input *ai.ClientInputError
	if errors.As(err, &input) {
		return mappedError{
			Status: input.StatusCode,
			Body:   middleware.ErrorBody{Error: input.Message, Details: input.Details},
			Class:  classInput,
		}
	}

	if errors.Is(err, ai.ErrQuotaExceeded) {
		return mappedError{http.StatusTooManyRequests, middleware.ErrorBody{Error: "Rate limit exceeded"}, classRateLimited}
	}

	var upstream *ai.UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.StatusCode {
		case http.StatusUnauthorized:
			return mappedError{http.StatusUnauthorized, middleware.ErrorBody{Error: "Invalid API key"}, classUpstreamAuth}
		case http.StatusBadRequest:
			return mappedError{http.StatusBadRequest, middleware.ErrorBody{Error: "Invalid request to AI service"}, classUpstreamRequest}
		default:
			return mappedError{
				Status: http.StatusInternalServerError,
				Body: middleware.ErrorBody{
					Error:   "AI service error",
					Details: redact.String(upstream.Message, secrets...),
				},
				Class: classUpstream,
			}
		}
	}

	switch {
	case errors.Is(err, ai.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return mappedError{
			Status: http.StatusRequestTimeout,
			Body:   middleware.ErrorBody{Error: "Request timeout", Details: "The AI service took too long to respond"},
			Class:  classTimeout,
		}
	case errors.Is(err, domain.ErrInvalidStructure), errors.Is(err, domain.ErrEmptyCompletion):
		return mappedError{
			Status: http.StatusInternalServerError,
			Body:   middleware.ErrorBody{Error: "AI service error", Details: "Invalid response structure from AI service"},
			Class:  classInvalidStructure,
		}
	}

	return mappedError{
		Status: http.StatusInternalServerError,
		Body:   middleware.ErrorBody{Error: "Internal server error", Details: "Something went wrong processing your request"},
		Class:  classInternal,
	}
}
