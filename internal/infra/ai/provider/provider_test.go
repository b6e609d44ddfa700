package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/image-caption/internal/config"
)

func TestNew_OpenAI(t *testing.T) {
	cfg := config.Default()
	cfg.AI.OpenAI.APIKey = "sk-test"
	cfg.AI.OpenAI.Model = "gpt-4o-mini"

	c, closeFn, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider())
	assert.Equal(t, "gpt-4o-mini", c.Model())
	assert.NoError(t, closeFn())
}

func TestNew_Gemini(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Provider = config.ProviderGemini
	cfg.AI.Gemini.APIKey = "AIza-test"

	c, closeFn, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "gemini", c.Provider())
	assert.Equal(t, "gemini-2.5-flash", c.Model())
}

func TestNew_Unknown(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Provider = "bard"
	_, _, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.AI.OpenAI.APIKey = "sk-a"
	assert.Equal(t, []string{"sk-a"}, Secrets(cfg))
}
