package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const liteHTML = `<html><body><table>
<tr><td><a rel="nofollow" class='result-link' href='https://example.com/one'>Example One &amp; Friends</a></td></tr>
<tr><td class='result-snippet'>Snippet one with <b>bold</b> text</td></tr>
<tr><td><a rel="nofollow" class='result-link' href='https://example.com/two'>Example Two</a></td></tr>
<tr><td class='result-snippet'>Snippet two</td></tr>
</table></body></html>`

func TestParseHTMLResults(t *testing.T) {
	results := parseHTMLResults(liteHTML, 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
	}
	if results[0].Title != "Example One & Friends" {
		t.Errorf("title = %q, entities not decoded", results[0].Title)
	}
	if results[0].URL != "https://example.com/one" {
		t.Errorf("url = %q", results[0].URL)
	}
	if results[0].Content != "Snippet one with bold text" {
		t.Errorf("snippet = %q, tags not stripped", results[0].Content)
	}
	if results[1].Title != "Example Two" || results[1].Content != "Snippet two" {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestParseHTMLResultsMaxResults(t *testing.T) {
	results := parseHTMLResults(liteHTML, 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].URL != "https://example.com/one" {
		t.Errorf("kept the wrong result: %+v", results[0])
	}
}

func TestParseHTMLResultsHrefBeforeClass(t *testing.T) {
	html := `<a rel="nofollow" href='https://example.com/alt' class='result-link'>Alternate Order</a>`
	results := parseHTMLResults(html, 5)
	if len(results) != 1 || results[0].URL != "https://example.com/alt" {
		t.Fatalf("results = %+v", results)
	}
}

func TestFallbackParse(t *testing.T) {
	html := `<body>
<a href="/settings">Settings</a>
<a href="https://duckduckgo.com/about">About DuckDuckGo</a>
<a href="javascript:void(0)">Click here please</a>
<a href="https://example.com/page">A Real Result Title</a>
<a href="https://example.com/page">A Real Result Title</a>
<a href="https://example.com/other">ads</a>
<a href="https://example.org/doc">Another Fine Result</a>
</body>`

	results := fallbackParse(html, 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
	}
	if results[0].URL != "https://example.com/page" || results[1].URL != "https://example.org/doc" {
		t.Errorf("results = %+v", results)
	}
}

func TestParseHTMLResultsUsesFallback(t *testing.T) {
	html := `<a href="https://example.com/only">Result Without Classes</a>`
	results := parseHTMLResults(html, 5)
	if len(results) != 1 || results[0].Title != "Result Without Classes" {
		t.Fatalf("results = %+v", results)
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a &amp; b", "a & b"},
		{"&lt;tag&gt;", "<tag>"},
		{"&quot;quoted&quot;", `"quoted"`},
		{"it&#39;s", "it's"},
		{"one&nbsp;two", "one two"},
		{"<b>bold</b> move", "bold move"},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := cleanHTML(tt.in); got != tt.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDuckDuckGoSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotQuery = r.PostFormValue("q")
		w.Write([]byte(liteHTML))
	}))
	defer srv.Close()

	d := NewDuckDuckGoWithClient(testClient(t, srv))
	results, err := d.Search(context.Background(), "golang iterators", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "golang iterators" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(results) != 2 || !strings.HasPrefix(results[0].URL, "https://example.com/") {
		t.Errorf("results = %+v", results)
	}
}

func TestDuckDuckGoEmptyQuery(t *testing.T) {
	d := NewDuckDuckGo()
	if _, err := d.Search(context.Background(), "   ", 5); err == nil {
		t.Fatal("expected error for blank query")
	}
}
