package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/research"
)

const clarifierInstructions = `You are a product manager who likes to understand the pain points of users. You will be provided with a user query. Based on the query, ask the user 3 clarifying questions to learn more about their pain points and gauge what it is they are really looking for. Ask them exactly 3 questions that you think would provide the most insight.`

func clarifyingQuestionsSchema() string {
	return `Return the JSON object directly without any formatting or additional text. The JSON object should have the following structure as defined in the schema. Make sure to answer in valid json and include all necessary properties:{
  "type": "object",
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "question": {
            "type": "string",
            "description": "The question to be asked to the user"
          },
          "reason": {
            "type": "string",
            "description": "Reason why this question is important"
          }
        },
        "required": ["question", "reason"]
      },
      "description": "A list of exactly 3 questions to gauge the user's requirements"
    }
  },
  "required": ["questions"]
}`
}

// ClarifierAgent generates the clarifying questions a run opens with.
type ClarifierAgent struct {
	r runner
}

func NewClarifier(llm llms.Model, logger *slog.Logger) *ClarifierAgent {
	return &ClarifierAgent{r: newRunner(llm, logger)}
}

func (a *ClarifierAgent) Clarify(ctx context.Context, query string) ([]research.ClarifyingQuestion, error) {
	input := fmt.Sprintf("Query: %s", query)

	type questionsResponse struct {
		Questions []research.ClarifyingQuestion `json:"questions"`
	}
	var parsed questionsResponse

	_, err := a.r.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, clarifierInstructions+"\n\n# Response Format:\n"+clarifyingQuestionsSchema()),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}, func(content string) error {
		// Reset for retry
		parsed = questionsResponse{}

		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			return fmt.Errorf("json parse error: %w (content: %s)", err, content)
		}
		if len(parsed.Questions) == 0 {
			return fmt.Errorf("empty questions list")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parsed.Questions, nil
}
