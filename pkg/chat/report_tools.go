package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/mikeboe/deep-research/pkg/archive"
)

// ReportToolset exposes the report archive to the chat agent: semantic
// search across archived reports, full report retrieval and a listing of
// finished runs.
type ReportToolset struct {
	Archive *archive.Archiver
}

func NewReportToolset(a *archive.Archiver) *ReportToolset {
	return &ReportToolset{Archive: a}
}

func (t *ReportToolset) Name() string {
	return "report_tools"
}

func (t *ReportToolset) Tools(ctx agent.ReadonlyContext) ([]tool.Tool, error) {
	searchTool, err := functiontool.New[SearchReportsArgs, SearchReportsResp](
		functiontool.Config{
			Name:        "search_reports",
			Description: "Search across archived research reports using semantic search.",
		},
		t.searchReportsTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search tool: %w", err)
	}

	getReportTool, err := functiontool.New[GetReportArgs, GetReportResp](
		functiontool.Config{
			Name:        "get_report",
			Description: "Retrieve the full markdown of one research report by its trace ID.",
		},
		t.getReportTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_report tool: %w", err)
	}

	listReportsTool, err := functiontool.New[ListReportsArgs, ListReportsResp](
		functiontool.Config{
			Name:        "list_reports",
			Description: "List recent research runs with their trace IDs, topics and statuses.",
		},
		t.listReportsTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create list_reports tool: %w", err)
	}

	return []tool.Tool{searchTool, getReportTool, listReportsTool}, nil
}

// --- Tool Implementations ---

type SearchReportsArgs struct {
	Query   string `json:"query" description:"The search query"`
	TopK    int    `json:"topK,omitempty" description:"Number of results to return (default 5)"`
	TraceID string `json:"traceId,omitempty" description:"Optional trace ID to restrict the search to one report"`
}

type SearchReportsResp struct {
	Results string `json:"results"`
}

// Wrapper for ADK tool interface
func (t *ReportToolset) searchReportsTool(ctx tool.Context, args SearchReportsArgs) (SearchReportsResp, error) {
	return t.SearchReports(ctx, args)
}

// Public method using standard context
func (t *ReportToolset) SearchReports(ctx context.Context, args SearchReportsArgs) (SearchReportsResp, error) {
	if args.TopK == 0 {
		args.TopK = 5
	}

	slog.Info("Search reports", "query", args.Query, "topK", args.TopK, "trace_id", args.TraceID)

	results, err := t.Archive.Search(ctx, args.Query, args.TopK, args.TraceID)
	if err != nil {
		return SearchReportsResp{}, fmt.Errorf("failed to search: %w", err)
	}

	var formattedResults []string
	for _, result := range results {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("[Report]: %s (%s)\n[Content]: %s",
			result.Chunk.Topic, result.Chunk.TraceID, result.Chunk.Content))
		formattedResults = append(formattedResults, sb.String())
	}

	serialized := strings.Join(formattedResults, "\n\n")
	return SearchReportsResp{Results: serialized}, nil
}

type GetReportArgs struct {
	TraceID string `json:"traceId" description:"The trace ID of the report to retrieve"`
}

type GetReportResp struct {
	Topic  string `json:"topic"`
	Report string `json:"report"`
}

// Wrapper for ADK tool interface
func (t *ReportToolset) getReportTool(ctx tool.Context, args GetReportArgs) (GetReportResp, error) {
	return t.GetReport(ctx, args)
}

// Public method using standard context
func (t *ReportToolset) GetReport(ctx context.Context, args GetReportArgs) (GetReportResp, error) {
	topic, report, err := t.Archive.Report(ctx, args.TraceID)
	if err != nil {
		return GetReportResp{}, fmt.Errorf("failed to load report: %w", err)
	}
	return GetReportResp{Topic: topic, Report: report}, nil
}

type ListReportsArgs struct {
	Limit int `json:"limit,omitempty" description:"Maximum number of runs to list (default 20)"`
}

type ListReportsResp struct {
	Reports string `json:"reports"`
}

// Wrapper for ADK tool interface
func (t *ReportToolset) listReportsTool(ctx tool.Context, args ListReportsArgs) (ListReportsResp, error) {
	return t.ListReports(ctx, args)
}

// Public method using standard context
func (t *ReportToolset) ListReports(ctx context.Context, args ListReportsArgs) (ListReportsResp, error) {
	if args.Limit <= 0 {
		args.Limit = 20
	}

	rows, err := t.Archive.DB.Pool.Query(ctx,
		`SELECT trace_id, topic, status FROM research_runs WHERE trace_id IS NOT NULL ORDER BY created_at DESC LIMIT $1`,
		args.Limit)
	if err != nil {
		return ListReportsResp{}, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var traceID, topic, status string
		if err := rows.Scan(&traceID, &topic, &status); err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s | %s | %s", traceID, topic, status))
	}

	return ListReportsResp{Reports: strings.Join(lines, "\n")}, nil
}
