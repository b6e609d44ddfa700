package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ErrMissingCredential is returned when the selected provider has no API key.
var ErrMissingCredential = errors.New("missing AI provider credential")

type Config struct {
	Server struct {
		Port      int      `yaml:"port"`
		StaticDir string   `yaml:"staticDir"`
		APIKeys   []string `yaml:"apiKeys"`
		RateLimit struct {
			Requests int           `yaml:"requests"`
			Window   time.Duration `yaml:"window"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Upload struct {
		MaxBytes int64 `yaml:"maxBytes"`
	} `yaml:"upload"`

	AI struct {
		Provider string `yaml:"provider"`
		OpenAI   struct {
			APIKey  string `yaml:"apiKey"`
			Model   string `yaml:"model"`
			BaseURL string `yaml:"baseURL"`
		} `yaml:"openai"`
		Gemini struct {
			APIKey string `yaml:"apiKey"`
			Model  string `yaml:"model"`
		} `yaml:"gemini"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxTokens   int           `yaml:"maxTokens"`
		Temperature float32       `yaml:"temperature"`
	} `yaml:"ai"`

	Audit struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"audit"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads .env, the optional YAML file at path, then environment
// overrides, and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in settings.
func Default() *Config {
	var c Config
	c.Server.Port = 3000
	c.Server.RateLimit.Requests = 100
	c.Server.RateLimit.Window = 15 * time.Minute
	c.Upload.MaxBytes = 10 << 20
	c.AI.Provider = ProviderOpenAI
	c.AI.OpenAI.Model = "gpt-4o"
	c.AI.Gemini.Model = "gemini-2.5-flash"
	c.AI.Timeout = 30 * time.Second
	c.AI.MaxTokens = 500
	c.AI.Temperature = 0.3
	c.Log.Level = "info"
	return &c
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("AI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AI_TIMEOUT %q: %w", v, err)
		}
		c.AI.Timeout = d
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		c.Server.APIKeys = splitList(v)
	}
	setString(&c.Server.StaticDir, "STATIC_DIR")
	setString(&c.AI.Provider, "AI_PROVIDER")
	setString(&c.AI.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.AI.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.AI.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.AI.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.AI.Gemini.Model, "GEMINI_MODEL")
	setString(&c.Audit.Driver, "AUDIT_DRIVER")
	setString(&c.Audit.DSN, "AUDIT_DSN")
	setString(&c.Log.Level, "LOG_LEVEL")
	return nil
}

func (c *Config) Validate() error {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case ProviderOpenAI:
		if strings.TrimSpace(c.AI.OpenAI.APIKey) == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingCredential)
		}
	case ProviderGemini:
		if strings.TrimSpace(c.AI.Gemini.APIKey) == "" {
			return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("unknown ai.provider %q (allowed: openai, gemini)", c.AI.Provider)
	}

	switch c.Audit.Driver {
	case "":
	case "mysql", "postgres":
		if c.Audit.DSN == "" {
			return fmt.Errorf("audit.driver %s requires audit.dsn", c.Audit.Driver)
		}
	default:
		return fmt.Errorf("unknown audit.driver %q (allowed: mysql, postgres)", c.Audit.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.maxBytes must be positive")
	}
	return nil
}

// Model returns the model name of the selected provider.
func (c *Config) Model() string {
	if c.AI.Provider == ProviderGemini {
		return c.AI.Gemini.Model
	}
	return c.AI.OpenAI.Model
}

// APIKeySet returns the configured client keys as a lookup set.
func (c *Config) APIKeySet() map[string]struct{} {
	if len(c.Server.APIKeys) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(c.Server.APIKeys))
	for _, k := range c.Server.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = struct{}{}
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
