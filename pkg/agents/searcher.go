package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search"
)

const searcherInstructions = `You are a research assistant. Given a search term and a set of web search results, you produce a concise summary of the results. The summary must be 2-3 paragraphs and less than 300 words. Capture the main points. Write succinctly, no need to have complete sentences or perfect grammar. This will be consumed by someone synthesizing a report, so it is vital you capture the essence and ignore any fluff. Do not include any additional commentary other than the summary itself.`

// DefaultResultsPerSearch caps how many provider hits feed one summary.
const DefaultResultsPerSearch = 5

// SearcherAgent executes one search task: fetch results from the configured
// provider, then compress them into a summary for the writer.
type SearcherAgent struct {
	r        runner
	provider search.Provider

	// Results caps provider hits per query.
	Results int
}

func NewSearcher(llm llms.Model, provider search.Provider, logger *slog.Logger) *SearcherAgent {
	return &SearcherAgent{
		r:        newRunner(llm, logger),
		provider: provider,
		Results:  DefaultResultsPerSearch,
	}
}

func (a *SearcherAgent) Search(ctx context.Context, task research.SearchTask) (string, error) {
	results, err := a.provider.Search(ctx, task.Query, a.Results)
	if err != nil {
		return "", fmt.Errorf("searching %q: %w", task.Query, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no results for %q", task.Query)
	}

	input := fmt.Sprintf("Search term: %s\nReason for searching: %s\n\nSearch results:\n%s",
		task.Query, task.Reason, formatResults(results))

	summary, err := a.r.generate(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, searcherInstructions),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	})
	if err != nil {
		return "", fmt.Errorf("summarizing %q: %w", task.Query, err)
	}
	return summary, nil
}

func formatResults(results []search.Result) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}
	return b.String()
}
