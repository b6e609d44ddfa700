package caption

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/image-caption/internal/application"
	"github.com/bryanwahyu/image-caption/internal/domain/ai"
	domain "github.com/bryanwahyu/image-caption/internal/domain/caption"
	"github.com/bryanwahyu/image-caption/internal/logger"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// Service runs one image through the provider and normalizes the reply.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	client  ai.VisionClient
	clock   application.Clock
	timeout time.Duration
}

// Outcome is the normalized result of one analysis.
type Outcome struct {
	Result   domain.Result
	Fallback bool
	Duration time.Duration
}

func NewService(client ai.VisionClient, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{client: client, clock: application.SystemClock{}, timeout: timeout}
}

// WithClock overrides the clock used to measure provider latency.
func (s *Service) WithClock(c application.Clock) *Service {
	if c != nil {
		s.clock = c
	}
	return s
}

func (s *Service) Provider() string { return s.client.Provider() }
func (s *Service) Model() string    { return s.client.Model() }

// Analyze makes exactly one provider call bounded by the service timeout.
// Errors are ai.UpstreamError, ai.ErrTimeout, domain.ErrInvalidStructure,
// domain.ErrEmptyCompletion or an unexpected local failure.
func (s *Service) Analyze(ctx context.Context, img domain.Image) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.clock.Now()
	raw, err := s.client.Describe(ctx, img)
	elapsed := s.clock.Now().Sub(start)
	if err != nil {
		var upstream *ai.UpstreamError
		switch {
		case errors.As(err, &upstream):
			return Outcome{Duration: elapsed}, err
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			return Outcome{Duration: elapsed}, fmt.Errorf("%w after %s: %w", ai.ErrTimeout, s.timeout, err)
		default:
			return Outcome{Duration: elapsed}, err
		}
	}

	res, fallback, err := domain.Normalize(raw)
	if err != nil {
		return Outcome{Duration: elapsed}, err
	}
	if fallback {
		logger.WithFields(logrus.Fields{
			"provider": s.client.Provider(),
			"raw_len":  len(raw),
		}).Warn("model reply had no JSON object, built caption from text")
	}
	return Outcome{Result: res, Fallback: fallback, Duration: elapsed}, nil
}
