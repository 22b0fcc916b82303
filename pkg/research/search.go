package research

import (
	"context"
	"log/slog"

	"github.com/mikeboe/deep-research/pkg/metrics"
)

// ExecuteSearches runs every task concurrently and collects the summaries in
// completion order. A failed task is logged and dropped; it never aborts the
// batch and is not retried. With no tasks the result is empty and the call
// returns immediately.
func ExecuteSearches(ctx context.Context, searcher Searcher, tasks []SearchTask, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	if len(tasks) == 0 {
		return nil
	}

	type outcome struct {
		task    SearchTask
		summary string
		err     error
	}

	results := make(chan outcome, len(tasks))
	for _, task := range tasks {
		go func(task SearchTask) {
			summary, err := searcher.Search(ctx, task)
			results <- outcome{task: task, summary: summary, err: err}
		}(task)
	}

	summaries := make([]string, 0, len(tasks))
	for completed := 1; completed <= len(tasks); completed++ {
		out := <-results
		if out.err != nil {
			logger.Warn("search failed", "query", out.task.Query, "error", out.err)
			metrics.SearchesTotal.WithLabelValues("error").Inc()
		} else {
			summaries = append(summaries, out.summary)
			metrics.SearchesTotal.WithLabelValues("ok").Inc()
		}
		logger.Info("searching", "completed", completed, "total", len(tasks))
	}
	return summaries
}
