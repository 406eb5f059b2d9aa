package gemini

import (
	"errors"
	"os"
	"strings"

	"swipe/interview/internal/llm"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.5-flash"
)

var errMissingKey = errors.New("GEMINI_API_KEY is required when AI_PROVIDER=gemini")

// Config selects the Gemini model and endpoint.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the public endpoint, e.g. for a proxy.
	BaseURL string
}

func init() {
	llm.Register(ProviderName, func() (llm.Provider, error) {
		cfg, err := ConfigFromEnv(os.Getenv)
		if err != nil {
			return nil, err
		}
		return NewClient(cfg)
	})
}

// ConfigFromEnv reads GEMINI_API_KEY, GEMINI_MODEL and GEMINI_BASE_URL.
func ConfigFromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIKey:  strings.TrimSpace(getenv("GEMINI_API_KEY")),
		Model:   strings.TrimSpace(getenv("GEMINI_MODEL")),
		BaseURL: strings.TrimSpace(getenv("GEMINI_BASE_URL")),
	}
	if cfg.APIKey == "" {
		return nil, errMissingKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return cfg, nil
}
