package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type arxivEntry struct {
	Title   string      `xml:"title"`
	Summary string      `xml:"summary"`
	Link    []arxivLink `xml:"link"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entry   []arxivEntry `xml:"entry"`
}

// maxPDFChars caps extracted paper text so the summarizer prompt stays
// bounded.
const maxPDFChars = 8000

// Arxiv queries the arXiv export API. Useful for academic topics where paper
// abstracts beat general web snippets.
type Arxiv struct {
	client *http.Client

	// OCR, when set, replaces each result's abstract with the paper's
	// extracted full text.
	OCR *PDFExtractor
}

func NewArxiv() *Arxiv {
	return &Arxiv{client: &http.Client{Timeout: 15 * time.Second}}
}

func (a *Arxiv) Name() string { return "arxiv" }

func (a *Arxiv) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Add("search_query", query)
	params.Add("max_results", strconv.Itoa(maxResults))
	params.Add("start", "0")
	apiURL := "https://export.arxiv.org/api/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned non-200 status code: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal XML: %w", err)
	}

	results := make([]Result, 0, len(feed.Entry))
	for _, entry := range feed.Entry {
		link := ""
		for _, l := range entry.Link {
			if l.Type == "application/pdf" {
				link = l.Href
				break
			}
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(entry.Title),
			URL:     link,
			Content: strings.TrimSpace(entry.Summary),
		})
	}

	if a.OCR != nil {
		for i := range results {
			if results[i].URL == "" {
				continue
			}
			text, err := a.OCR.Extract(ctx, results[i].URL)
			if err != nil {
				// Abstract stays in place when extraction fails
				continue
			}
			if len(text) > maxPDFChars {
				text = text[:maxPDFChars]
			}
			results[i].Content = text
		}
	}
	return results, nil
}
