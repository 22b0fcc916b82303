package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mikeboe/deep-research/pkg/agents"
	"github.com/mikeboe/deep-research/pkg/archive"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/database"
	"github.com/mikeboe/deep-research/pkg/embeddings"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/spf13/cobra"
)

var (
	topic      string
	answers    []string
	outputPath string
	noEmail    bool
)

// skipNotifier replaces the email agent when --no-email is set.
type skipNotifier struct{}

func (skipNotifier) Notify(ctx context.Context, report research.ReportData) error {
	return nil
}

func main() {
	// Setup structured logging
	handler := slog.NewTextHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(handler))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	rootCmd := &cobra.Command{
		Use:   "deep-research",
		Short: "A terminal-based deep research assistant",
		Long:  `deep-research asks clarifying questions about a topic, plans and runs web searches, writes a long-form report and emails it to you.`,
		Run:   runResearch,
	}

	rootCmd.Flags().StringVarP(&topic, "topic", "t", "", "The research topic")
	rootCmd.Flags().StringArrayVarP(&answers, "answer", "a", nil, "Answer to a clarifying question, repeat once per question")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report markdown to this file")
	rootCmd.Flags().BoolVar(&noEmail, "no-email", false, "Skip the email notification step")

	rootCmd.AddCommand(pastCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func runResearch(cmd *cobra.Command, args []string) {
	cfg := config.Load()
	ctx := context.Background()

	if !cmd.Flags().Changed("topic") {
		// Interactive Mode
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("What topic would you like to research? ")
		input, _ := reader.ReadString('\n')
		topic = strings.TrimSpace(input)
	}
	if topic == "" {
		slog.Error("Topic cannot be empty")
		os.Exit(1)
	}

	mgr, err := agents.FromConfig(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Error initializing research manager", "error", err)
		os.Exit(1)
	}

	if len(answers) > 0 {
		mgr.Collector = research.StaticCollector(answers)
	} else {
		mgr.Collector = &research.PromptCollector{In: os.Stdin, Out: os.Stdout}
	}
	if noEmail {
		mgr.Notifier = skipNotifier{}
	}

	var report *research.ReportData
	for update, err := range mgr.Run(ctx, topic) {
		fmt.Println(update.Message)
		if err != nil {
			os.Exit(1)
		}
		if update.Report != nil {
			report = update.Report
		}
	}
	if report == nil {
		slog.Error("Research finished without a report")
		os.Exit(1)
	}

	if len(report.FollowUpQuestions) > 0 {
		fmt.Println("\nFollow up questions:")
		for _, q := range report.FollowUpQuestions {
			fmt.Printf("- %s\n", q)
		}
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(report.MarkdownReport), 0o644); err != nil {
			slog.Error("Failed to write report file", "path", outputPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Report saved", "path", outputPath)
	}

	// Archive the run when a database is configured so the chat agent and
	// the past command can find it later
	if cfg.DatabaseURL != "" {
		if err := archiveRun(ctx, cfg, mgr.TraceID, topic, *report); err != nil {
			slog.Error("Failed to archive report", "error", err)
		}
	}
}

func archiveRun(ctx context.Context, cfg *config.Config, traceID, topic string, report research.ReportData) error {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO research_runs (id, trace_id, topic, status, report)
		VALUES ($1, $2, $3, 'done', $4)
		ON CONFLICT (trace_id) DO UPDATE SET report = EXCLUDED.report, status = 'done', updated_at = NOW()
	`, uuid.New(), traceID, topic, reportJSON)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	archiver := archive.New(db, embedder, cfg.CollectionName, cfg.ChunkSize, cfg.ChunkOverlap)
	return archiver.Save(ctx, traceID, topic, report)
}

func pastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "past [query]",
		Short: "List past research runs, or search the report archive",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				slog.Error("DATABASE_URL is not set")
				os.Exit(1)
			}

			ctx := context.Background()
			db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
			if err != nil {
				slog.Error("Failed to connect to database", "error", err)
				os.Exit(1)
			}
			defer db.Close()

			if len(args) > 0 {
				searchPastReports(ctx, cfg, db, strings.Join(args, " "))
				return
			}

			rows, err := db.Pool.Query(ctx, `
				SELECT COALESCE(trace_id, ''), topic, status, created_at
				FROM research_runs
				ORDER BY created_at DESC
				LIMIT 20
			`)
			if err != nil {
				slog.Error("Failed to list runs", "error", err)
				os.Exit(1)
			}
			defer rows.Close()

			for rows.Next() {
				var traceID, runTopic, status string
				var createdAt time.Time
				if err := rows.Scan(&traceID, &runTopic, &status, &createdAt); err != nil {
					continue
				}
				fmt.Printf("%s  %-9s  %s  %s\n", createdAt.Format("2006-01-02 15:04"), status, traceID, runTopic)
			}
		},
	}
}

// searchPastReports does a semantic search over archived report chunks and
// prints the closest matches.
func searchPastReports(ctx context.Context, cfg *config.Config, db *database.PostgresDB, query string) {
	embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey)
	if err != nil {
		slog.Error("Failed to create embedder", "error", err)
		os.Exit(1)
	}
	archiver := archive.New(db, embedder, cfg.CollectionName, cfg.ChunkSize, cfg.ChunkOverlap)

	results, err := archiver.Search(ctx, query, 5, "")
	if err != nil {
		slog.Error("Archive search failed", "error", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No matching report chunks found.")
		return
	}

	for _, r := range results {
		fmt.Printf("%.2f  %s  %s\n", r.Score, r.Chunk.TraceID, r.Chunk.Topic)
		snippet := r.Chunk.Content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		fmt.Printf("      %s\n\n", strings.ReplaceAll(snippet, "\n", " "))
	}
}
