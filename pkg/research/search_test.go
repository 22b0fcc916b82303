package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
)

type scriptedSearcher struct {
	failOn map[string]error
}

func (s *scriptedSearcher) Search(ctx context.Context, task SearchTask) (string, error) {
	if err, ok := s.failOn[task.Query]; ok {
		return "", err
	}
	return "summary of " + task.Query, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteSearchesCollectsAll(t *testing.T) {
	tasks := []SearchTask{
		{Query: "alpha", Reason: "r1"},
		{Query: "beta", Reason: "r2"},
		{Query: "gamma", Reason: "r3"},
	}

	summaries := ExecuteSearches(context.Background(), &scriptedSearcher{}, tasks, quietLogger())
	if len(summaries) != len(tasks) {
		t.Fatalf("expected %d summaries, got %d", len(tasks), len(summaries))
	}

	// Completion order is not deterministic, only the set of summaries is.
	sort.Strings(summaries)
	want := []string{"summary of alpha", "summary of beta", "summary of gamma"}
	for i, s := range want {
		if summaries[i] != s {
			t.Errorf("summaries[%d] = %q, want %q", i, summaries[i], s)
		}
	}
}

func TestExecuteSearchesDropsFailures(t *testing.T) {
	tasks := []SearchTask{
		{Query: "alpha"},
		{Query: "beta"},
		{Query: "gamma"},
	}
	searcher := &scriptedSearcher{failOn: map[string]error{"beta": errors.New("timeout")}}

	summaries := ExecuteSearches(context.Background(), searcher, tasks, quietLogger())
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d: %v", len(summaries), summaries)
	}
	for _, s := range summaries {
		if s == "summary of beta" {
			t.Error("failed task leaked a summary")
		}
	}
}

func TestExecuteSearchesAllFail(t *testing.T) {
	searcher := &scriptedSearcher{failOn: map[string]error{
		"alpha": fmt.Errorf("no results"),
		"beta":  fmt.Errorf("no results"),
	}}
	summaries := ExecuteSearches(context.Background(), searcher, []SearchTask{{Query: "alpha"}, {Query: "beta"}}, quietLogger())
	if len(summaries) != 0 {
		t.Fatalf("expected no summaries, got %v", summaries)
	}
}

func TestExecuteSearchesNoTasks(t *testing.T) {
	if got := ExecuteSearches(context.Background(), &scriptedSearcher{}, nil, quietLogger()); got != nil {
		t.Fatalf("expected nil for empty task list, got %v", got)
	}
}
