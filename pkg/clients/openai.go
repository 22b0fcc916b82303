package clients

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAi builds an OpenAI-backed langchaingo model.
func OpenAi(apiKey, model string) (*openai.LLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return llm, nil
}
