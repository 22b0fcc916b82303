package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/research"
)

const writerInstructions = `You are a senior researcher tasked with writing a cohesive report for a research query. You will be provided with the original query and some initial research done by a research assistant.

You should first come up with an outline for the report that describes the structure and flow of the report. Then generate the report and return that as your final output.

The final output should be in markdown format, and it should be lengthy and detailed. Aim for 5-10 pages of content, at least 1000 words.`

func reportSchema() string {
	return `Return the JSON object directly without any formatting or additional text. The JSON object should have the following structure as defined in the schema. Make sure to answer in valid json and include all necessary properties:{
  "type": "object",
  "properties": {
    "short_summary": {
      "type": "string",
      "description": "A short 2-3 sentence summary of the findings"
    },
    "markdown_report": {
      "type": "string",
      "description": "The final report in markdown"
    },
    "follow_up_questions": {
      "type": "array",
      "items": {
        "type": "string"
      },
      "description": "Suggested topics to research further"
    }
  },
  "required": ["short_summary", "markdown_report", "follow_up_questions"]
}`
}

// WriterAgent synthesizes the final report from the search summaries.
type WriterAgent struct {
	r runner
}

func NewWriter(llm llms.Model, logger *slog.Logger) *WriterAgent {
	return &WriterAgent{r: newRunner(llm, logger)}
}

func (a *WriterAgent) WriteReport(ctx context.Context, query string, summaries []string) (research.ReportData, error) {
	input := fmt.Sprintf("Original query: %s\nSummarized search results: %s",
		query, strings.Join(summaries, "\n\n"))

	var report research.ReportData
	_, err := a.r.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, writerInstructions+"\n\n# Response Format:\n"+reportSchema()),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}, func(content string) error {
		report = research.ReportData{}
		if err := json.Unmarshal([]byte(content), &report); err != nil {
			return fmt.Errorf("json parse error: %w", err)
		}
		if report.MarkdownReport == "" {
			return fmt.Errorf("empty markdown report")
		}
		return nil
	})
	if err != nil {
		return research.ReportData{}, err
	}

	a.r.logger.Info("report written", "length", len(report.MarkdownReport))
	return report, nil
}
