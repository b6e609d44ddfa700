package caption

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/image-caption/internal/domain/ai"
	domain "github.com/bryanwahyu/image-caption/internal/domain/caption"
)

type fakeClient struct {
	reply string
	err   error
	block bool
	calls int
}

func (f *fakeClient) Describe(ctx context.Context, _ domain.Image) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func (f *fakeClient) Provider() string { return "fake" }
func (f *fakeClient) Model() string    { return "fake-1" }

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(250 * time.Millisecond)
	return c.t
}

func image() domain.Image {
	return domain.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png", Size: 4}
}

func TestService_Analyze(t *testing.T) {
	client := &fakeClient{reply: "```json\n{\"altText\":\"Cat\",\"description\":\"A cat asleep.\",\"analysis\":{\"colors\":[\"grey\"],\"objects\":[\"cat\"],\"mood\":\"Calm\",\"composition\":\"Close-up\"}}\n```"}
	svc := NewService(client, time.Second).WithClock(&stepClock{})

	out, err := svc.Analyze(context.Background(), image())
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "Cat", out.Result.AltText)
	assert.Equal(t, []string{"cat"}, out.Result.Analysis.Objects)
	assert.Equal(t, 250*time.Millisecond, out.Duration)
	assert.Equal(t, 1, client.calls)
}

func TestService_AnalyzeFallback(t *testing.T) {
	svc := NewService(&fakeClient{reply: "Just a cat."}, time.Second)

	out, err := svc.Analyze(context.Background(), image())
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, "Just a cat.", out.Result.Description)
}

func TestService_AnalyzeTimeout(t *testing.T) {
	client := &fakeClient{block: true}
	svc := NewService(client, 20*time.Millisecond)

	_, err := svc.Analyze(context.Background(), image())
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrTimeout)
	assert.Equal(t, 1, client.calls)
}

func TestService_AnalyzeUpstreamError(t *testing.T) {
	upstream := &ai.UpstreamError{Provider: "fake", StatusCode: 429, Message: "slow down"}
	svc := NewService(&fakeClient{err: upstream}, time.Second)

	_, err := svc.Analyze(context.Background(), image())
	var got *ai.UpstreamError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 429, got.StatusCode)
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestService_AnalyzeInvalidStructure(t *testing.T) {
	svc := NewService(&fakeClient{reply: `{"altText": "Cat"}`}, time.Second)

	_, err := svc.Analyze(context.Background(), image())
	assert.ErrorIs(t, err, domain.ErrInvalidStructure)
}

func TestNewService_DefaultTimeout(t *testing.T) {
	svc := NewService(&fakeClient{}, 0)
	assert.Equal(t, DefaultTimeout, svc.timeout)
}
