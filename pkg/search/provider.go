// Package search provides the web search backends the searcher agent draws
// its results from. All backends implement Provider; which one runs is a
// config decision, not a code one.
package search

import (
	"context"
	"fmt"

	"github.com/mikeboe/deep-research/pkg/config"
)

// Result is a single hit returned by a provider.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Provider is a web search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// FromConfig returns the provider selected in cfg.
func FromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.SearchProvider {
	case "tavily":
		return NewTavily(cfg.TavilyApiKey, ""), nil
	case "duckduckgo", "":
		return NewDuckDuckGo(), nil
	case "arxiv":
		a := NewArxiv()
		if cfg.MistralApiKey != "" {
			a.OCR = NewPDFExtractor(cfg.MistralApiKey)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", cfg.SearchProvider)
	}
}
