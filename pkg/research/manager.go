package research

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/mikeboe/deep-research/pkg/metrics"
)

// Manager drives a single research run through its stages: clarify, plan,
// search, write, notify. Construct one Manager per run; it records the run's
// trace ID and is not safe for concurrent reuse.
type Manager struct {
	Clarifier Clarifier
	Planner   Planner
	Searcher  Searcher
	Writer    Writer
	Notifier  Notifier

	// Collector supplies answers to the clarifying questions. Only Run uses
	// it; RunWithTranscript receives the transcript ready-made.
	Collector AnswerCollector

	// TraceViewer is the base URL the trace link is built on. Empty means
	// DefaultTraceViewerURL.
	TraceViewer string

	// TraceID is assigned when a run starts and identifies it everywhere:
	// progress updates, logs, persisted rows.
	TraceID string

	Logger *slog.Logger
}

// NewManager wires up a Manager with the given stage agents. Collector,
// TraceViewer and Logger can be set on the result before calling Run.
func NewManager(clarifier Clarifier, planner Planner, searcher Searcher, writer Writer, notifier Notifier) *Manager {
	return &Manager{
		Clarifier: clarifier,
		Planner:   planner,
		Searcher:  searcher,
		Writer:    writer,
		Notifier:  notifier,
		Logger:    slog.Default(),
	}
}

// Run executes the full research pipeline for query, collecting answers to
// the clarifying questions through the configured Collector. The returned
// sequence yields progress updates in order and ends with the final report
// markdown. On a fatal stage failure it yields one StageFailed update
// together with the error and stops. The sequence is single-use.
func (m *Manager) Run(ctx context.Context, query string) iter.Seq2[Update, error] {
	return func(yield func(Update, error) bool) {
		if !m.start(yield) {
			return
		}

		transcript, err := m.collectInsights(ctx, query)
		if err != nil {
			m.fail(yield, err)
			return
		}
		m.pipeline(ctx, query, transcript, yield)
	}
}

// RunWithTranscript executes the pipeline with the clarifying answers already
// collected, formatted as a FormatTranscript result. HTTP callers use this:
// questions go out in one request, answers come back in another.
func (m *Manager) RunWithTranscript(ctx context.Context, query, transcript string) iter.Seq2[Update, error] {
	return func(yield func(Update, error) bool) {
		if !m.start(yield) {
			return
		}
		if !yield(Update{Stage: StageCreated, Message: "Starting research with your responses..."}, nil) {
			return
		}
		m.pipeline(ctx, query, transcript, yield)
	}
}

// start assigns the trace ID and emits the trace link as the first update.
func (m *Manager) start(yield func(Update, error) bool) bool {
	m.TraceID = NewTraceID()
	url := TraceURL(m.TraceViewer, m.TraceID)
	m.Logger.Info("view trace", "url", url)
	metrics.RunsStarted.Inc()
	return yield(Update{Stage: StageCreated, Message: url}, nil)
}

func (m *Manager) pipeline(ctx context.Context, query, transcript string, yield func(Update, error) bool) {
	planStart := time.Now()
	tasks, err := m.Planner.Plan(ctx, query, transcript)
	metrics.StageDuration.WithLabelValues(string(StagePlanning)).Observe(time.Since(planStart).Seconds())
	if err != nil {
		m.fail(yield, fmt.Errorf("planning searches: %w", err))
		return
	}
	m.Logger.Info("searches planned", "trace_id", m.TraceID, "count", len(tasks))
	if !yield(Update{Stage: StageSearching, Message: "Searches planned, starting to search..."}, nil) {
		return
	}

	searchStart := time.Now()
	summaries := ExecuteSearches(ctx, m.Searcher, tasks, m.Logger)
	metrics.StageDuration.WithLabelValues(string(StageSearching)).Observe(time.Since(searchStart).Seconds())
	if len(summaries) == 0 && len(tasks) > 0 {
		m.Logger.Warn("all searches failed, writing report without results", "trace_id", m.TraceID)
	}
	if !yield(Update{Stage: StageWriting, Message: "Searches complete, writing report..."}, nil) {
		return
	}

	writeStart := time.Now()
	report, err := m.Writer.WriteReport(ctx, query, summaries)
	metrics.StageDuration.WithLabelValues(string(StageWriting)).Observe(time.Since(writeStart).Seconds())
	if err != nil {
		m.fail(yield, fmt.Errorf("writing report: %w", err))
		return
	}
	if !yield(Update{Stage: StageNotifying, Message: "Report written, sending email..."}, nil) {
		return
	}

	// Notification is best-effort. The report exists at this point and a
	// delivery failure must not destroy the run.
	message := "Email sent, research complete"
	if err := m.Notifier.Notify(ctx, report); err != nil {
		m.Logger.Error("report notification failed", "trace_id", m.TraceID, "error", err)
		metrics.NotificationsTotal.WithLabelValues("error").Inc()
		message = "Email failed, research complete"
	} else {
		metrics.NotificationsTotal.WithLabelValues("ok").Inc()
	}
	if !yield(Update{Stage: StageDone, Message: message}, nil) {
		return
	}

	metrics.RunsFinished.WithLabelValues(string(StageDone)).Inc()
	yield(Update{Stage: StageDone, Message: report.MarkdownReport, Report: &report}, nil)
}

// collectInsights generates the clarifying questions, gathers answers through
// the Collector and folds them into the planner transcript. The run is
// suspended here for as long as the Collector blocks.
func (m *Manager) collectInsights(ctx context.Context, query string) (string, error) {
	if m.Collector == nil {
		return "", fmt.Errorf("no answer collector configured")
	}
	questions, err := m.Clarifier.Clarify(ctx, query)
	if err != nil {
		return "", fmt.Errorf("generating clarifying questions: %w", err)
	}
	m.Logger.Info("clarifying questions generated", "trace_id", m.TraceID, "count", len(questions))

	answers, err := m.Collector.Collect(ctx, questions)
	if err != nil {
		return "", fmt.Errorf("collecting answers: %w", err)
	}
	pairs, err := PairAnswers(questions, answers)
	if err != nil {
		return "", err
	}
	return FormatTranscript(pairs), nil
}

func (m *Manager) fail(yield func(Update, error) bool, err error) {
	m.Logger.Error("research run failed", "trace_id", m.TraceID, "error", err)
	metrics.RunsFinished.WithLabelValues(string(StageFailed)).Inc()
	yield(Update{Stage: StageFailed, Message: fmt.Sprintf("Error running research: %v", err)}, err)
}
