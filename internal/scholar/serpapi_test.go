package scholar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchRelated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("engine"); got != "google_scholar" {
			t.Errorf("engine = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "graph limits" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("as_ylo"); got != "2000" {
			t.Errorf("as_ylo = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic_results":[
			{"title":"Limits of dense graph sequences","link":"https://example.org/a","snippet":"We introduce...","publication_info":{"summary":"L Lovasz, 2006"}},
			{"title":"Graphons","link":"https://example.org/b","snippet":"Survey."},
			{"title":"Third","link":"https://example.org/c","snippet":"Extra."}
		]}`))
	}))
	defer srv.Close()

	c, err := NewSerpClient(SerpOptions{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewSerpClient: %v", err)
	}
	results, err := c.SearchRelated(context.Background(), Query{Text: "graph limits", Limit: 2, StartYear: 2000})
	if err != nil {
		t.Fatalf("SearchRelated: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want limit applied", len(results))
	}
	if results[0].Title != "Limits of dense graph sequences" {
		t.Fatalf("Title = %q", results[0].Title)
	}
	if results[0].Source != "L Lovasz, 2006" {
		t.Fatalf("Source = %q", results[0].Source)
	}
}

func TestSearchRelatedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer srv.Close()

	c, err := NewSerpClient(SerpOptions{APIKey: "bad", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewSerpClient: %v", err)
	}
	if _, err := c.SearchRelated(context.Background(), Query{Text: "anything", Limit: 3}); err == nil {
		t.Fatal("expected error for API-level failure")
	}
}

func TestSearchRelatedEmptyQuery(t *testing.T) {
	c, err := NewSerpClient(SerpOptions{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewSerpClient: %v", err)
	}
	if _, err := c.SearchRelated(context.Background(), Query{Text: "  "}); err == nil {
		t.Fatal("expected error for empty query")
	}
}
