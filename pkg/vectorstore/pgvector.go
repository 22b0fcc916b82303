package vectorstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ReportChunk is one embedded slice of an archived report. ChunkIndex orders
// chunks within a run so the full report can be reassembled.
type ReportChunk struct {
	ID         string    `json:"id"`
	TraceID    string    `json:"trace_id"`
	Topic      string    `json:"topic"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// PGVectorStore handles pgvector operations
type PGVectorStore struct {
	pool      *pgxpool.Pool
	tableName string
}

// isValidTableName validates that a table name contains only safe characters
// to prevent SQL injection attacks
func isValidTableName(name string) bool {
	// Only allow alphanumeric characters and underscores
	// Table names must start with a letter or underscore and be between 1-63 chars (PostgreSQL limit)
	matched, _ := regexp.MatchString(`^[a-z_][a-zA-Z0-9_]{0,62}$`, name)
	return matched
}

// NewPGVectorStore creates a new PGVector store
func NewPGVectorStore(pool *pgxpool.Pool, tableName string) (*PGVectorStore, error) {
	if !isValidTableName(tableName) {
		return nil, fmt.Errorf("invalid table name: must contain only alphanumeric characters and underscores, start with a letter or underscore, and be 1-63 characters long")
	}
	return &PGVectorStore{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// AddChunks inserts report chunks with their embeddings in one batch.
func (vs *PGVectorStore) AddChunks(ctx context.Context, chunks []ReportChunk) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (trace_id, topic, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
	`, pgx.Identifier{vs.tableName}.Sanitize())

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		embedding := pgvector.NewVector(chunk.Embedding)
		batch.Queue(query, chunk.TraceID, chunk.Topic, chunk.ChunkIndex, chunk.Content, embedding)
	}

	br := vs.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range chunks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	return nil
}

// SimilaritySearchResult represents a search result with score
type SimilaritySearchResult struct {
	Chunk ReportChunk
	Score float64
}

// SimilaritySearch finds the chunks closest to queryEmbedding by cosine
// distance. A non-empty traceFilter restricts the search to one run.
func (vs *PGVectorStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, topK int, traceFilter string) ([]SimilaritySearchResult, error) {
	var query string
	var args []interface{}

	embedding := pgvector.NewVector(queryEmbedding)

	if traceFilter != "" {
		query = fmt.Sprintf(`
			SELECT id, trace_id, topic, chunk_index, content, 1 - (embedding <=> $1) as similarity
			FROM %s
			WHERE trace_id = $2
			ORDER BY embedding <=> $1
			LIMIT $3
		`, pgx.Identifier{vs.tableName}.Sanitize())
		args = []interface{}{embedding, traceFilter, topK}
	} else {
		query = fmt.Sprintf(`
			SELECT id, trace_id, topic, chunk_index, content, 1 - (embedding <=> $1) as similarity
			FROM %s
			ORDER BY embedding <=> $1
			LIMIT $2
		`, pgx.Identifier{vs.tableName}.Sanitize())
		args = []interface{}{embedding, topK}
	}

	rows, err := vs.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute similarity search: %w", err)
	}
	defer rows.Close()

	var results []SimilaritySearchResult
	for rows.Next() {
		var chunk ReportChunk
		var similarity float64

		if err := rows.Scan(&chunk.ID, &chunk.TraceID, &chunk.Topic, &chunk.ChunkIndex, &chunk.Content, &similarity); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		results = append(results, SimilaritySearchResult{
			Chunk: chunk,
			Score: similarity,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// GetByTrace retrieves every chunk of one run's report in chunk order.
func (vs *PGVectorStore) GetByTrace(ctx context.Context, traceID string) ([]ReportChunk, error) {
	query := fmt.Sprintf(`
		SELECT id, trace_id, topic, chunk_index, content
		FROM %s
		WHERE trace_id = $1
		ORDER BY chunk_index ASC
	`, pgx.Identifier{vs.tableName}.Sanitize())

	rows, err := vs.pool.Query(ctx, query, traceID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var chunks []ReportChunk
	for rows.Next() {
		var chunk ReportChunk
		if err := rows.Scan(&chunk.ID, &chunk.TraceID, &chunk.Topic, &chunk.ChunkIndex, &chunk.Content); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return chunks, nil
}

// DeleteByTrace removes all chunks of one run, for re-archiving.
func (vs *PGVectorStore) DeleteByTrace(ctx context.Context, traceID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE trace_id = $1`, pgx.Identifier{vs.tableName}.Sanitize())
	if _, err := vs.pool.Exec(ctx, query, traceID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}
