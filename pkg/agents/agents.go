package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/notify"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search"
)

// FromConfig wires a research.Manager with the LLM, search and email backends
// selected by cfg. The planner and writer run on the reasoning model, the
// remaining agents on the fast one.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*research.Manager, error) {
	reasoning, err := clients.FromConfig(ctx, cfg, cfg.ReasoningModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create reasoning model client: %w", err)
	}
	fast, err := clients.FromConfig(ctx, cfg, cfg.FastModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create fast model client: %w", err)
	}
	provider, err := search.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create search provider: %w", err)
	}
	sender := notify.FromConfig(cfg, logger)

	planner := NewPlanner(reasoning, logger)
	if cfg.SearchCount > 0 {
		planner.Count = cfg.SearchCount
	}

	mgr := research.NewManager(
		NewClarifier(fast, logger),
		planner,
		NewSearcher(fast, provider, logger),
		NewWriter(reasoning, logger),
		NewEmailAgent(fast, sender, logger),
	)
	mgr.TraceViewer = cfg.TraceViewerURL
	mgr.Logger = logger
	return mgr, nil
}
