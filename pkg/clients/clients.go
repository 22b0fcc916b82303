// Package clients constructs LLM handles for the configured provider. Both
// providers come back as llms.Model so the agents never know which one they
// run on.
package clients

import (
	"context"
	"fmt"

	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/tmc/langchaingo/llms"
)

// FromConfig returns a model handle for the provider selected in cfg. The
// model name is caller-supplied so reasoning and fast models can share one
// provider setup.
func FromConfig(ctx context.Context, cfg *config.Config, model string) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "google", "":
		return GoogleAi(ctx, cfg.GoogleApiKey, model)
	case "openai":
		return OpenAi(cfg.OpenAIApiKey, model)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
