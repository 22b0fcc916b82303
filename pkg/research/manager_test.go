package research

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeClarifier struct {
	questions []ClarifyingQuestion
	err       error
	gotQuery  string
}

func (f *fakeClarifier) Clarify(ctx context.Context, query string) ([]ClarifyingQuestion, error) {
	f.gotQuery = query
	return f.questions, f.err
}

type fakePlanner struct {
	tasks         []SearchTask
	err           error
	gotQuery      string
	gotTranscript string
}

func (f *fakePlanner) Plan(ctx context.Context, query, transcript string) ([]SearchTask, error) {
	f.gotQuery = query
	f.gotTranscript = transcript
	return f.tasks, f.err
}

type fakeSearchAgent struct {
	err error
}

func (f *fakeSearchAgent) Search(ctx context.Context, task SearchTask) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "summary of " + task.Query, nil
}

type fakeWriter struct {
	report       ReportData
	err          error
	gotQuery     string
	gotSummaries []string
}

func (f *fakeWriter) WriteReport(ctx context.Context, query string, summaries []string) (ReportData, error) {
	f.gotQuery = query
	f.gotSummaries = summaries
	if f.err != nil {
		return ReportData{}, f.err
	}
	return f.report, nil
}

type fakeNotifier struct {
	err       error
	calls     int
	gotReport ReportData
}

func (f *fakeNotifier) Notify(ctx context.Context, report ReportData) error {
	f.calls++
	f.gotReport = report
	return f.err
}

func testManager(clarifier Clarifier, planner Planner, searcher Searcher, writer Writer, notifier Notifier) *Manager {
	m := NewManager(clarifier, planner, searcher, writer, notifier)
	m.Logger = quietLogger()
	return m
}

func TestRunWithTranscriptYieldsFullSequence(t *testing.T) {
	writer := &fakeWriter{report: ReportData{
		ShortSummary:      "two lines on the topic",
		MarkdownReport:    "# Report\n\nBody.",
		FollowUpQuestions: []string{"what next?"},
	}}
	notifier := &fakeNotifier{}
	planner := &fakePlanner{tasks: []SearchTask{{Query: "a"}, {Query: "b"}, {Query: "c"}}}
	m := testManager(&fakeClarifier{}, planner, &fakeSearchAgent{}, writer, notifier)

	var updates []Update
	for u, err := range m.RunWithTranscript(context.Background(), "the topic", "1. Q - Response: A\n") {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		updates = append(updates, u)
	}

	if len(updates) != 7 {
		t.Fatalf("expected 7 updates, got %d: %+v", len(updates), updates)
	}
	if !strings.HasPrefix(updates[0].Message, DefaultTraceViewerURL+"trace_") {
		t.Errorf("first update = %q, want trace link", updates[0].Message)
	}
	wantMessages := []string{
		"Starting research with your responses...",
		"Searches planned, starting to search...",
		"Searches complete, writing report...",
		"Report written, sending email...",
		"Email sent, research complete",
		"# Report\n\nBody.",
	}
	for i, want := range wantMessages {
		if updates[i+1].Message != want {
			t.Errorf("update %d message = %q, want %q", i+1, updates[i+1].Message, want)
		}
	}
	wantStages := []Stage{StageCreated, StageCreated, StageSearching, StageWriting, StageNotifying, StageDone, StageDone}
	for i, want := range wantStages {
		if updates[i].Stage != want {
			t.Errorf("update %d stage = %q, want %q", i, updates[i].Stage, want)
		}
	}

	final := updates[len(updates)-1]
	if final.Report == nil || final.Report.MarkdownReport != "# Report\n\nBody." {
		t.Errorf("final update carries no report: %+v", final)
	}
	for _, u := range updates[:len(updates)-1] {
		if u.Report != nil {
			t.Errorf("non-final update carries a report: %+v", u)
		}
	}

	if planner.gotQuery != "the topic" || planner.gotTranscript != "1. Q - Response: A\n" {
		t.Errorf("planner got query %q transcript %q", planner.gotQuery, planner.gotTranscript)
	}
	if len(writer.gotSummaries) != 3 {
		t.Errorf("writer got %d summaries, want 3", len(writer.gotSummaries))
	}
	if notifier.calls != 1 || notifier.gotReport.MarkdownReport != "# Report\n\nBody." {
		t.Errorf("notifier calls = %d, report = %+v", notifier.calls, notifier.gotReport)
	}
	if m.TraceID == "" || !strings.HasPrefix(m.TraceID, "trace_") {
		t.Errorf("manager trace ID = %q", m.TraceID)
	}
}

func TestRunCollectsAnswersIntoTranscript(t *testing.T) {
	clarifier := &fakeClarifier{questions: []ClarifyingQuestion{
		{Question: "Scope?", Reason: "r1"},
		{Question: "Depth?", Reason: "r2"},
	}}
	planner := &fakePlanner{tasks: []SearchTask{{Query: "q"}}}
	writer := &fakeWriter{report: ReportData{MarkdownReport: "# R"}}
	m := testManager(clarifier, planner, &fakeSearchAgent{}, writer, &fakeNotifier{})
	m.Collector = StaticCollector{"broad", "deep"}

	var messages []string
	for u, err := range m.Run(context.Background(), "my topic") {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		messages = append(messages, u.Message)
	}

	if clarifier.gotQuery != "my topic" {
		t.Errorf("clarifier got query %q", clarifier.gotQuery)
	}
	wantTranscript := "1. Scope? - Response: broad\n2. Depth? - Response: deep\n"
	if planner.gotTranscript != wantTranscript {
		t.Errorf("planner transcript = %q, want %q", planner.gotTranscript, wantTranscript)
	}

	// Interactive runs go straight from the trace link to the pipeline, with
	// no transcript acknowledgement in between.
	if len(messages) != 6 {
		t.Fatalf("expected 6 updates, got %d: %v", len(messages), messages)
	}
	if messages[1] != "Searches planned, starting to search..." {
		t.Errorf("second message = %q", messages[1])
	}
}

func TestRunWriterFailure(t *testing.T) {
	clarifier := &fakeClarifier{questions: []ClarifyingQuestion{{Question: "Q?"}}}
	notifier := &fakeNotifier{}
	m := testManager(clarifier, &fakePlanner{tasks: []SearchTask{{Query: "q"}}},
		&fakeSearchAgent{}, &fakeWriter{err: errors.New("model exploded")}, notifier)
	m.Collector = StaticCollector{"a"}

	var last Update
	var lastErr error
	for u, err := range m.Run(context.Background(), "t") {
		last, lastErr = u, err
	}

	if lastErr == nil {
		t.Fatal("expected a stream error")
	}
	if last.Stage != StageFailed {
		t.Errorf("final stage = %q, want %q", last.Stage, StageFailed)
	}
	want := "Error running research: writing report: model exploded"
	if last.Message != want {
		t.Errorf("final message = %q, want %q", last.Message, want)
	}
	if notifier.calls != 0 {
		t.Errorf("notifier called %d times after writer failure", notifier.calls)
	}
}

func TestRunNotifierFailureStillDeliversReport(t *testing.T) {
	writer := &fakeWriter{report: ReportData{MarkdownReport: "# R"}}
	m := testManager(&fakeClarifier{}, &fakePlanner{tasks: []SearchTask{{Query: "q"}}},
		&fakeSearchAgent{}, writer, &fakeNotifier{err: errors.New("smtp down")})

	var updates []Update
	for u, err := range m.RunWithTranscript(context.Background(), "t", "") {
		if err != nil {
			t.Fatalf("notification failure must not error the stream: %v", err)
		}
		updates = append(updates, u)
	}

	if len(updates) != 7 {
		t.Fatalf("expected 7 updates, got %d", len(updates))
	}
	if updates[5].Message != "Email failed, research complete" {
		t.Errorf("status message = %q", updates[5].Message)
	}
	if updates[6].Report == nil {
		t.Error("final update lost the report")
	}
}

func TestRunWithoutCollector(t *testing.T) {
	m := testManager(&fakeClarifier{questions: []ClarifyingQuestion{{Question: "Q?"}}},
		&fakePlanner{}, &fakeSearchAgent{}, &fakeWriter{}, &fakeNotifier{})

	var last Update
	var lastErr error
	for u, err := range m.Run(context.Background(), "t") {
		last, lastErr = u, err
	}

	if lastErr == nil || last.Stage != StageFailed {
		t.Fatalf("expected failure, got update %+v err %v", last, lastErr)
	}
	if !strings.Contains(last.Message, "no answer collector configured") {
		t.Errorf("final message = %q", last.Message)
	}
}

func TestRunAnswerCountMismatch(t *testing.T) {
	clarifier := &fakeClarifier{questions: []ClarifyingQuestion{
		{Question: "A?"}, {Question: "B?"}, {Question: "C?"},
	}}
	m := testManager(clarifier, &fakePlanner{}, &fakeSearchAgent{}, &fakeWriter{}, &fakeNotifier{})
	m.Collector = StaticCollector{"only one"}

	var lastErr error
	for _, err := range m.Run(context.Background(), "t") {
		lastErr = err
	}

	var countErr *AnswerCountError
	if !errors.As(lastErr, &countErr) {
		t.Fatalf("expected *AnswerCountError, got %v", lastErr)
	}
	if countErr.Want != 3 || countErr.Got != 1 {
		t.Errorf("counts = %+v", countErr)
	}
}

func TestRunEmptyPlanStillWritesReport(t *testing.T) {
	writer := &fakeWriter{report: ReportData{MarkdownReport: "# Thin"}}
	m := testManager(&fakeClarifier{}, &fakePlanner{}, &fakeSearchAgent{}, writer, &fakeNotifier{})

	var final Update
	for u, err := range m.RunWithTranscript(context.Background(), "t", "") {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		final = u
	}

	if final.Report == nil {
		t.Fatal("expected a report despite the empty plan")
	}
	if len(writer.gotSummaries) != 0 {
		t.Errorf("writer got summaries %v for an empty plan", writer.gotSummaries)
	}
}

func TestRunsAreIndependent(t *testing.T) {
	newMgr := func() *Manager {
		return testManager(&fakeClarifier{}, &fakePlanner{tasks: []SearchTask{{Query: "q"}}},
			&fakeSearchAgent{}, &fakeWriter{report: ReportData{MarkdownReport: "# R"}}, &fakeNotifier{})
	}

	m1, m2 := newMgr(), newMgr()
	run := func(m *Manager) *ReportData {
		var report *ReportData
		for u, err := range m.RunWithTranscript(context.Background(), "t", "") {
			if err != nil {
				t.Fatalf("unexpected stream error: %v", err)
			}
			if u.Report != nil {
				report = u.Report
			}
		}
		return report
	}

	r1, r2 := run(m1), run(m2)
	if r1 == nil || r2 == nil {
		t.Fatal("both runs must produce a report")
	}
	if m1.TraceID == m2.TraceID {
		t.Errorf("runs share trace ID %q", m1.TraceID)
	}
}

func TestRunStopsWhenConsumerBreaks(t *testing.T) {
	notifier := &fakeNotifier{}
	m := testManager(&fakeClarifier{}, &fakePlanner{tasks: []SearchTask{{Query: "q"}}},
		&fakeSearchAgent{}, &fakeWriter{report: ReportData{MarkdownReport: "# R"}}, notifier)

	seen := 0
	for range m.RunWithTranscript(context.Background(), "t", "") {
		seen++
		if seen == 2 {
			break
		}
	}

	if seen != 2 {
		t.Fatalf("consumed %d updates", seen)
	}
	if notifier.calls != 0 {
		t.Errorf("pipeline kept running after the consumer stopped")
	}
}
