// Package archive persists finished reports into the vector store so the
// follow-up chat can search them later. Chunks carry the run's trace ID; the
// full report text stays in research_runs.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mikeboe/deep-research/pkg/database"
	"github.com/mikeboe/deep-research/pkg/embeddings"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/splitter"
	"github.com/mikeboe/deep-research/pkg/vectorstore"
)

// Archiver chunks, embeds and stores finished reports.
type Archiver struct {
	DB           *database.PostgresDB
	Embedder     *embeddings.GoogleEmbedder
	Collection   string
	ChunkSize    int
	ChunkOverlap int
	Logger       *slog.Logger
}

func New(db *database.PostgresDB, embedder *embeddings.GoogleEmbedder, collection string, chunkSize, chunkOverlap int) *Archiver {
	return &Archiver{
		DB:           db,
		Embedder:     embedder,
		Collection:   collection,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Logger:       slog.Default(),
	}
}

// Save splits the report into chunks, embeds them and writes them under the
// run's trace ID. Saving the same trace again replaces its chunks.
func (a *Archiver) Save(ctx context.Context, traceID, topic string, report research.ReportData) error {
	if err := a.DB.EnsureVectorExtension(ctx); err != nil {
		return fmt.Errorf("ensuring vector extension: %w", err)
	}
	if err := a.DB.CreateReportChunksTable(ctx, a.Collection, embeddings.Dimension); err != nil {
		return fmt.Errorf("creating report chunks table: %w", err)
	}

	ts := splitter.NewMarkdownSplitter(a.ChunkSize, a.ChunkOverlap)
	chunks, err := ts.SplitText(report.MarkdownReport)
	if err != nil {
		return fmt.Errorf("splitting report: %w", err)
	}
	if len(chunks) == 0 {
		chunks = []string{report.MarkdownReport}
	}

	vectors, err := a.Embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding report: %w", err)
	}

	store, err := vectorstore.NewPGVectorStore(a.DB.Pool, a.Collection)
	if err != nil {
		return err
	}
	if err := store.DeleteByTrace(ctx, traceID); err != nil {
		return err
	}

	docs := make([]vectorstore.ReportChunk, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vectorstore.ReportChunk{
			TraceID:    traceID,
			Topic:      topic,
			ChunkIndex: i,
			Content:    chunk,
			Embedding:  vectors[i],
		}
	}
	if err := store.AddChunks(ctx, docs); err != nil {
		return fmt.Errorf("storing report chunks: %w", err)
	}

	a.Logger.Info("report archived", "trace_id", traceID, "chunks", len(docs))
	return nil
}

// Search embeds the query and returns the closest report chunks. A non-empty
// traceFilter restricts the search to one run.
func (a *Archiver) Search(ctx context.Context, query string, topK int, traceFilter string) ([]vectorstore.SimilaritySearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	vector, err := a.Embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	store, err := vectorstore.NewPGVectorStore(a.DB.Pool, a.Collection)
	if err != nil {
		return nil, err
	}
	return store.SimilaritySearch(ctx, vector, topK, traceFilter)
}

// Report returns the topic and full report markdown of an archived run. The
// authoritative text lives in research_runs; chunks only serve search.
func (a *Archiver) Report(ctx context.Context, traceID string) (string, string, error) {
	var topic string
	var reportJSON []byte
	err := a.DB.Pool.QueryRow(ctx,
		`SELECT topic, report FROM research_runs WHERE trace_id = $1`, traceID,
	).Scan(&topic, &reportJSON)
	if err != nil {
		return "", "", fmt.Errorf("loading run %s: %w", traceID, err)
	}
	if len(reportJSON) == 0 {
		return topic, "", fmt.Errorf("run %s has no report", traceID)
	}

	var report research.ReportData
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return "", "", fmt.Errorf("decoding report: %w", err)
	}
	return topic, report.MarkdownReport, nil
}
