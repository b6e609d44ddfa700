package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bryanwahyu/image-caption/internal/domain/ai"
	"github.com/bryanwahyu/image-caption/internal/domain/caption"
	"github.com/bryanwahyu/image-caption/internal/infra/ai/prompt"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

type Options struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

type Client struct {
	cl          *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(opts.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = prompt.MaxTokens
	}
	return &Client{cl: cl, model: model, maxTokens: int32(maxTokens), temperature: opts.Temperature}, nil
}

func (c *Client) Provider() string { return providerName }
func (c *Client) Model() string    { return c.model }

func (c *Client) Close() error { return c.cl.Close() }

func (c *Client) Describe(ctx context.Context, img caption.Image) (string, error) {
	m := c.cl.GenerativeModel(c.model)
	m.SetTemperature(c.temperature)
	m.SetMaxOutputTokens(c.maxTokens)

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt.GetCaptionPrompt()),
		genai.Blob{MIMEType: img.MimeType, Data: img.Data},
	)
	if err != nil {
		return "", translateError(err)
	}
	text := textOf(resp)
	if strings.TrimSpace(text) == "" {
		return "", caption.ErrEmptyCompletion
	}
	return text, nil
}

// textOf joins the text parts of the first candidate that has content.
func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func translateError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &ai.UpstreamError{Provider: providerName, StatusCode: http.StatusBadRequest, Message: "content blocked by provider safety filters", Err: err}
	}

	var ae *apierror.APIError
	if errors.As(err, &ae) {
		if ae.Reason() == "API_KEY_INVALID" {
			return &ai.UpstreamError{Provider: providerName, StatusCode: http.StatusUnauthorized, Message: "API key not valid", Err: err}
		}
		if hc := ae.HTTPCode(); hc > 0 {
			return &ai.UpstreamError{Provider: providerName, StatusCode: hc, Message: http.StatusText(hc), Err: err}
		}
		if s := ae.GRPCStatus(); s != nil {
			return fromStatus(s, err)
		}
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.OK {
		return fromStatus(s, err)
	}
	return fmt.Errorf("gemini generate content: %w", err)
}

func fromStatus(s *status.Status, err error) error {
	switch s.Code() {
	case codes.DeadlineExceeded:
		return fmt.Errorf("gemini: %w: %w", context.DeadlineExceeded, err)
	case codes.Canceled:
		return fmt.Errorf("gemini: %w: %w", context.Canceled, err)
	}
	return &ai.UpstreamError{Provider: providerName, StatusCode: httpStatus(s.Code()), Message: s.Message(), Err: err}
}

func httpStatus(c codes.Code) int {
	switch c {
	case codes.Unauthenticated, codes.PermissionDenied:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
