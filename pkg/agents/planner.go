package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/research"
)

// DefaultSearchCount is how many searches the planner is asked for when the
// caller does not override it.
const DefaultSearchCount = 3

const plannerInstructionsFormat = `You are a helpful research assistant. You will be provided with:
1. A research query
2. A list of clarifying questions that were asked to the user
3. The user's responses to those questions

Based on the original query, the questions, and the user's responses, come up with a set of web searches to perform to best answer the query.

CRITICAL: You MUST output exactly %d search terms. Do not output more or fewer than %d searches.

The input will be in this format:
Query: [the original research query]
Questions and Responses:
1. [Question 1] - Response: [User's answer]
2. [Question 2] - Response: [User's answer]
3. [Question 3] - Response: [User's answer]`

func searchPlanSchema() string {
	return `Return the JSON object directly without any formatting or additional text. The JSON object should have the following structure as defined in the schema. Make sure to answer in valid json and include all necessary properties:{
  "type": "object",
  "properties": {
    "searches": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "query": {
            "type": "string",
            "description": "The search term to use for the web search"
          },
          "reason": {
            "type": "string",
            "description": "Your reasoning for why this search is important to the query"
          }
        },
        "required": ["query", "reason"]
      },
      "description": "A list of web searches to perform to best answer the query"
    }
  },
  "required": ["searches"]
}`
}

// PlannerAgent turns the topic and the clarifying transcript into a search
// plan.
type PlannerAgent struct {
	r runner

	// Count is the number of searches demanded from the model. The pipeline
	// tolerates a plan of any length, including empty.
	Count int
}

func NewPlanner(llm llms.Model, logger *slog.Logger) *PlannerAgent {
	return &PlannerAgent{r: newRunner(llm, logger), Count: DefaultSearchCount}
}

func (a *PlannerAgent) Plan(ctx context.Context, query, transcript string) ([]research.SearchTask, error) {
	instructions := fmt.Sprintf(plannerInstructionsFormat, a.Count, a.Count)
	input := fmt.Sprintf("Query: %s\nQuestions and Responses:\n%s", query, transcript)

	type planResponse struct {
		Searches []research.SearchTask `json:"searches"`
	}
	var parsed planResponse

	_, err := a.r.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, instructions+"\n\n# Response Format:\n"+searchPlanSchema()),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}, func(content string) error {
		parsed = planResponse{}
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			return fmt.Errorf("json parse error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.r.logger.Info("search plan ready", "count", len(parsed.Searches))
	return parsed.Searches, nil
}
