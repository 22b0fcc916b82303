package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/deep-research/pkg/agents"
	"github.com/mikeboe/deep-research/pkg/archive"
	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/database"
	"github.com/mikeboe/deep-research/pkg/research"
)

type Service struct {
	DB       *database.PostgresDB
	Cfg      *config.Config
	Archiver *archive.Archiver
}

func NewService(db *database.PostgresDB, cfg *config.Config, archiver *archive.Archiver) *Service {
	return &Service{
		DB:       db,
		Cfg:      cfg,
		Archiver: archiver,
	}
}

type Run struct {
	ID        uuid.UUID       `json:"id"`
	TraceID   *string         `json:"trace_id,omitempty"`
	Topic     string          `json:"topic"`
	Status    string          `json:"status"`
	Report    json.RawMessage `json:"report,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreateRunRequest struct {
	Topic     string                        `json:"topic"`
	Questions []research.ClarifyingQuestion `json:"questions,omitempty"`
	Answers   []string                      `json:"answers,omitempty"`
}

// GenerateQuestions returns the clarifying questions for a topic. The client
// shows them to the user and sends the answers back through CreateRun.
func (s *Service) GenerateQuestions(ctx context.Context, topic string) ([]research.ClarifyingQuestion, error) {
	llm, err := clients.FromConfig(ctx, s.Cfg, s.Cfg.FastModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return agents.NewClarifier(llm, slog.Default()).Clarify(ctx, topic)
}

func (s *Service) CreateRun(ctx context.Context, req CreateRunRequest) (*Run, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}

	transcript := ""
	if len(req.Questions) > 0 {
		pairs, err := research.PairAnswers(req.Questions, req.Answers)
		if err != nil {
			return nil, err
		}
		transcript = research.FormatTranscript(pairs)
	}

	runID := uuid.New()
	query := `
		INSERT INTO research_runs (id, topic, transcript, status)
		VALUES ($1, $2, $3, 'created')
		RETURNING id, topic, status, created_at, updated_at
	`

	run := &Run{}
	err := s.DB.Pool.QueryRow(ctx, query, runID, req.Topic, transcript).Scan(
		&run.ID, &run.Topic, &run.Status, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	// Start background worker
	go s.runWorker(run.ID, req.Topic, transcript)

	return run, nil
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, trace_id, topic, status, report, error, created_at, updated_at
		FROM research_runs
		WHERE id = $1
	`
	run := &Run{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.TraceID, &run.Topic, &run.Status, &run.Report, &run.Error, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (s *Service) ListRuns(ctx context.Context) ([]Run, error) {
	query := `
		SELECT id, trace_id, topic, status, report, error, created_at, updated_at
		FROM research_runs
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.TraceID, &run.Topic, &run.Status, &run.Report, &run.Error, &run.CreatedAt, &run.UpdatedAt); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// RunEvent is one persisted progress update. Replaying a run's events in id
// order reproduces the stream the worker consumed.
type RunEvent struct {
	ID        int       `json:"id"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) GetRunEvents(ctx context.Context, runID uuid.UUID) ([]RunEvent, error) {
	query := `
		SELECT id, stage, message, created_at
		FROM research_events
		WHERE run_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		var e RunEvent
		if err := rows.Scan(&e.ID, &e.Stage, &e.Message, &e.CreatedAt); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Service) GetRunLogs(ctx context.Context, runID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM research_logs
		WHERE run_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (s *Service) runWorker(runID uuid.UUID, topic, transcript string) {
	ctx := context.Background()

	// All pipeline logs for this run land in research_logs
	dbLogger := slog.New(NewDBLogHandler(s.DB, runID))

	mgr, err := agents.FromConfig(ctx, s.Cfg, dbLogger)
	if err != nil {
		s.failRun(ctx, runID, fmt.Sprintf("Failed to init research manager: %v", err))
		return
	}

	traceSaved := false
	lastStatus := ""
	var report *research.ReportData

	for update, runErr := range mgr.RunWithTranscript(ctx, topic, transcript) {
		// The trace ID exists once the first update arrives
		if !traceSaved && mgr.TraceID != "" {
			_, _ = s.DB.Pool.Exec(ctx,
				"UPDATE research_runs SET trace_id = $2, updated_at = NOW() WHERE id = $1",
				runID, mgr.TraceID)
			traceSaved = true
		}

		// The final update carries the report itself, that one goes in the
		// report column instead of the event log
		if update.Report == nil {
			s.recordEvent(ctx, runID, update)
		} else {
			report = update.Report
		}

		if runErr != nil {
			s.failRun(ctx, runID, runErr.Error())
			return
		}

		if st := string(update.Stage); st != lastStatus {
			_, _ = s.DB.Pool.Exec(ctx,
				"UPDATE research_runs SET status = $2, updated_at = NOW() WHERE id = $1",
				runID, st)
			lastStatus = st
		}
	}

	if report == nil {
		s.failRun(ctx, runID, "research finished without a report")
		return
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		s.failRun(ctx, runID, fmt.Sprintf("Failed to marshal report: %v", err))
		return
	}

	_, err = s.DB.Pool.Exec(ctx,
		"UPDATE research_runs SET status = 'done', report = $2, updated_at = NOW() WHERE id = $1",
		runID, reportJSON)
	if err != nil {
		dbLogger.Error("Failed to save final report to DB", "error", err)
	}

	// Chunk and embed the report so the chat agent can find it later
	if s.Archiver != nil {
		if err := s.Archiver.Save(ctx, mgr.TraceID, topic, *report); err != nil {
			dbLogger.Error("Failed to archive report", "error", err)
		}
	}
}

func (s *Service) recordEvent(ctx context.Context, runID uuid.UUID, update research.Update) {
	_, err := s.DB.Pool.Exec(ctx,
		"INSERT INTO research_events (run_id, stage, message) VALUES ($1, $2, $3)",
		runID, string(update.Stage), update.Message)
	if err != nil {
		slog.Error("Failed to record research event", "run_id", runID, "error", err)
	}
}

func (s *Service) failRun(ctx context.Context, runID uuid.UUID, reason string) {
	// Log the failure
	dbLogger := slog.New(NewDBLogHandler(s.DB, runID))
	dbLogger.Error(reason)

	// Update status
	_, _ = s.DB.Pool.Exec(ctx,
		"UPDATE research_runs SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1",
		runID, reason)
}
