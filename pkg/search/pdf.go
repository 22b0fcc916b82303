package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type pdfPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type ocrResponse struct {
	Pages []pdfPage `json:"pages"`
}

// PDFExtractor pulls the text of a PDF through the Mistral OCR API. The arXiv
// provider uses it to swap paper abstracts for full text when a key is
// configured.
type PDFExtractor struct {
	APIKey string
	client *http.Client
}

func NewPDFExtractor(apiKey string) *PDFExtractor {
	return &PDFExtractor{
		APIKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *PDFExtractor) Extract(ctx context.Context, docURL string) (string, error) {
	docURL = strings.Replace(docURL, "http://", "https://", 1)

	reqBody := map[string]interface{}{
		"model": "mistral-ocr-latest",
		"document": map[string]string{
			"type":         "document_url",
			"document_url": docURL,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.mistral.ai/v1/ocr", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status: %s, body: %s", resp.Status, string(body))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal OCR response: %w", err)
	}

	var b strings.Builder
	for _, page := range parsed.Pages {
		fmt.Fprintf(&b, "- Page %d -\n", page.Index)
		b.WriteString(page.Markdown)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
