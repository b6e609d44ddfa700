package ai

import (
	"context"

	"github.com/bryanwahyu/image-caption/internal/domain/caption"
)

// VisionClient sends one image plus the caption instruction to a model provider
// and returns the raw text of the reply.
type VisionClient interface {
	Describe(ctx context.Context, img caption.Image) (string, error)
	Provider() string
	Model() string
}
