// Package agents implements the pipeline stage agents on top of langchaingo.
// Each agent is a system prompt, an input format and, for structured stages,
// a JSON schema the response must satisfy.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// runner wraps an LLM handle with the retry loops shared by all agents.
type runner struct {
	llm    llms.Model
	logger *slog.Logger
}

func newRunner(llm llms.Model, logger *slog.Logger) runner {
	if logger == nil {
		logger = slog.Default()
	}
	return runner{llm: llm, logger: logger}
}

// generateWithRetry attempts to generate content and validates it using the
// provided function. It retries up to 3 times if the LLM fails or the
// validator returns an error.
func (r runner) generateWithRetry(ctx context.Context, prompts []llms.MessageContent, validator func(string) error) (string, error) {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			r.logger.Warn("Retrying LLM generation", "attempt", i+1, "last_error", lastErr)
			time.Sleep(time.Second * time.Duration(i)) // Linear backoff
		}

		resp, err := r.llm.GenerateContent(ctx, prompts, llms.WithJSONMode())
		if err != nil {
			lastErr = fmt.Errorf("llm generation failed: %w", err)
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("llm returned no choices")
			continue
		}

		content := resp.Choices[0].Content
		if err := validator(content); err != nil {
			lastErr = fmt.Errorf("validation failed: %w", err)
			continue
		}

		return content, nil
	}

	return "", fmt.Errorf("operation failed after %d retries: %w", maxRetries, lastErr)
}

// generate is the free-text variant for agents whose output is prose rather
// than JSON.
func (r runner) generate(ctx context.Context, prompts []llms.MessageContent) (string, error) {
	resp, err := r.llm.GenerateContent(ctx, prompts)
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return resp.Choices[0].Content, nil
}
