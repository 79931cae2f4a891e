package digest

import (
	"context"
	"fmt"
	"strings"

	"github.com/bher20/golddigest/internal/config"
)

// Generator sends one system + user prompt to a text model and returns the
// reply text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// NewGenerator picks the backend named by cfg.Provider. It returns nil when
// that backend has no API key, which the composer reports as ErrNotConfigured.
func NewGenerator(cfg config.AIConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return NewOpenAIGenerator(cfg), nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return NewAnthropicGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", cfg.Provider)
	}
}
