package research

import "context"

// ClarifyingQuestion is one question put to the user before planning, paired
// with the reason it was asked.
type ClarifyingQuestion struct {
	Question string `json:"question"`
	Reason   string `json:"reason"`
}

// QuestionAnswer pairs a clarifying question with the user's answer. Index is
// 1-based and matches the order the questions were generated in.
type QuestionAnswer struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SearchTask is a single planned web search. Tasks carry no ordering
// dependency on each other.
type SearchTask struct {
	Query  string `json:"query"`
	Reason string `json:"reason"`
}

// ReportData is the terminal artifact of a research run.
type ReportData struct {
	ShortSummary      string   `json:"short_summary"`
	MarkdownReport    string   `json:"markdown_report"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Stage identifies where a run is in its lifecycle.
type Stage string

const (
	StageCreated   Stage = "created"
	StagePlanning  Stage = "planning"
	StageSearching Stage = "searching"
	StageWriting   Stage = "writing"
	StageNotifying Stage = "notifying"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

// Update is one element of a run's progress stream. Message is always set;
// Report is non-nil only on the final update of a successful run, where
// Message carries the report markdown.
type Update struct {
	Stage   Stage       `json:"stage"`
	Message string      `json:"message"`
	Report  *ReportData `json:"report,omitempty"`
}

// Clarifier generates the clarifying questions for a topic.
type Clarifier interface {
	Clarify(ctx context.Context, query string) ([]ClarifyingQuestion, error)
}

// Planner turns the topic and the answer transcript into search tasks.
type Planner interface {
	Plan(ctx context.Context, query, transcript string) ([]SearchTask, error)
}

// Searcher executes one search task and returns a text summary of what it
// found.
type Searcher interface {
	Search(ctx context.Context, task SearchTask) (string, error)
}

// Writer produces the final report from the topic and the collected search
// summaries.
type Writer interface {
	WriteReport(ctx context.Context, query string, summaries []string) (ReportData, error)
}

// Notifier delivers a finished report. Delivery is best-effort: the pipeline
// logs a failure here but still returns the report.
type Notifier interface {
	Notify(ctx context.Context, report ReportData) error
}

// AnswerCollector gathers one answer per question, in question order. The
// interactive PromptCollector and the pass-through StaticCollector both
// implement it; the Manager does not care which.
type AnswerCollector interface {
	Collect(ctx context.Context, questions []ClarifyingQuestion) ([]string, error)
}
