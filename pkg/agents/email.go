package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/notify"
	"github.com/mikeboe/deep-research/pkg/research"
)

const emailInstructions = `You are able to send a nicely formatted HTML email based on a detailed report. You will be provided with a detailed report in markdown. Convert the report into clean, well presented HTML and come up with an appropriate subject line for the email.`

func emailSchema() string {
	return `Return the JSON object directly without any formatting or additional text. The JSON object should have the following structure as defined in the schema. Make sure to answer in valid json and include all necessary properties:{
  "type": "object",
  "properties": {
    "subject": {
      "type": "string",
      "description": "Subject line for the email"
    },
    "html_body": {
      "type": "string",
      "description": "The report converted to clean HTML"
    }
  },
  "required": ["subject", "html_body"]
}`
}

// EmailAgent turns a finished report into an HTML email and hands it to the
// configured sender.
type EmailAgent struct {
	r      runner
	sender notify.Sender
}

func NewEmailAgent(llm llms.Model, sender notify.Sender, logger *slog.Logger) *EmailAgent {
	return &EmailAgent{r: newRunner(llm, logger), sender: sender}
}

func (a *EmailAgent) Notify(ctx context.Context, report research.ReportData) error {
	type emailResponse struct {
		Subject  string `json:"subject"`
		HTMLBody string `json:"html_body"`
	}
	var parsed emailResponse

	_, err := a.r.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, emailInstructions+"\n\n# Response Format:\n"+emailSchema()),
		llms.TextParts(llms.ChatMessageTypeHuman, report.MarkdownReport),
	}, func(content string) error {
		parsed = emailResponse{}
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			return fmt.Errorf("json parse error: %w", err)
		}
		if parsed.Subject == "" || parsed.HTMLBody == "" {
			return fmt.Errorf("incomplete email payload")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("composing email: %w", err)
	}

	if err := a.sender.Send(ctx, parsed.Subject, parsed.HTMLBody); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	a.r.logger.Info("report email sent", "subject", parsed.Subject)
	return nil
}
