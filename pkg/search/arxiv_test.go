package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>
  Attention Is All You Need
</title>
    <summary>
  We propose a new architecture.
</summary>
    <link href="http://arxiv.org/abs/1706.03762" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <title>Paper Without PDF</title>
    <summary>Abstract only.</summary>
    <link href="http://arxiv.org/abs/9999.00001" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search_query") != "transformers" {
			t.Errorf("search_query = %q", q.Get("search_query"))
		}
		if q.Get("max_results") != "2" || q.Get("start") != "0" {
			t.Errorf("paging params = %v", q)
		}
		w.Write([]byte(arxivFeedXML))
	}))
	defer srv.Close()

	a := NewArxiv()
	a.client = testClient(t, srv)

	results, err := a.Search(context.Background(), "transformers", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Attention Is All You Need" {
		t.Errorf("title not trimmed: %q", results[0].Title)
	}
	if results[0].URL != "http://arxiv.org/pdf/1706.03762" {
		t.Errorf("url = %q, want the pdf link", results[0].URL)
	}
	if results[0].Content != "We propose a new architecture." {
		t.Errorf("content = %q", results[0].Content)
	}
	if results[1].URL != "" {
		t.Errorf("entry without pdf link got url %q", results[1].URL)
	}
}

func TestArxivSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewArxiv()
	a.client = testClient(t, srv)

	_, err := a.Search(context.Background(), "q", 1)
	if err == nil || !strings.Contains(err.Error(), "non-200 status code: 503") {
		t.Fatalf("error = %v", err)
	}
}

func TestArxivOCRReplacesAbstract(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arxivFeedXML))
	}))
	defer feedSrv.Close()

	longPage := strings.Repeat("lorem ipsum ", 1000)
	var gotAuth, gotDocURL string
	ocrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model    string            `json:"model"`
			Document map[string]string `json:"document"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode ocr body: %v", err)
		}
		gotDocURL = body.Document["document_url"]
		if body.Model != "mistral-ocr-latest" {
			t.Errorf("model = %q", body.Model)
		}
		fmt.Fprintf(w, `{"pages":[{"index":0,"markdown":%q}]}`, longPage)
	}))
	defer ocrSrv.Close()

	a := NewArxiv()
	a.client = testClient(t, feedSrv)
	a.OCR = NewPDFExtractor("mistral-key")
	a.OCR.client = testClient(t, ocrSrv)

	results, err := a.Search(context.Background(), "transformers", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotAuth != "Bearer mistral-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotDocURL != "https://arxiv.org/pdf/1706.03762" {
		t.Errorf("document_url = %q, want the https pdf link", gotDocURL)
	}

	if !strings.HasPrefix(results[0].Content, "- Page 0 -\n") {
		t.Errorf("content = %.40q, want page-marked text", results[0].Content)
	}
	if len(results[0].Content) != maxPDFChars {
		t.Errorf("content length = %d, want capped at %d", len(results[0].Content), maxPDFChars)
	}

	// No pdf link means nothing to extract; the abstract stays.
	if results[1].Content != "Abstract only." {
		t.Errorf("second result content = %q", results[1].Content)
	}
}

func TestArxivOCRFailureKeepsAbstract(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arxivFeedXML))
	}))
	defer feedSrv.Close()

	ocrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no quota", http.StatusPaymentRequired)
	}))
	defer ocrSrv.Close()

	a := NewArxiv()
	a.client = testClient(t, feedSrv)
	a.OCR = NewPDFExtractor("k")
	a.OCR.client = testClient(t, ocrSrv)

	results, err := a.Search(context.Background(), "transformers", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Content != "We propose a new architecture." {
		t.Errorf("content = %q, abstract should survive an OCR failure", results[0].Content)
	}
}
