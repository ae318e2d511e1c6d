// Package scholar finds literature related to an uploaded document.
package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is one related publication.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source,omitempty"`
	Year    int    `json:"year,omitempty"`
}

// Query scopes one related-literature search. StartYear/EndYear bound the
// publication window when non-zero.
type Query struct {
	Text      string
	Limit     int
	StartYear int
	EndYear   int
}

// Searcher looks up publications related to a free-text query.
type Searcher interface {
	SearchRelated(ctx context.Context, q Query) ([]Result, error)
}

// SerpOptions configures the SerpAPI Google Scholar client.
type SerpOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// SerpClient queries Google Scholar through SerpAPI.
type SerpClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSerpClient(opts SerpOptions) (*SerpClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("serpapi key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://serpapi.com"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SerpClient{apiKey: opts.APIKey, baseURL: baseURL, client: client}, nil
}

type serpResponse struct {
	OrganicResults []struct {
		Title           string `json:"title"`
		Link            string `json:"link"`
		Snippet         string `json:"snippet"`
		PublicationInfo struct {
			Summary string `json:"summary"`
		} `json:"publication_info"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// SearchRelated returns up to q.Limit publications for the query. An
// empty result set is not an error.
func (c *SerpClient) SearchRelated(ctx context.Context, q Query) ([]Result, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, errors.New("empty search query")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("engine", "google_scholar")
	params.Set("q", text)
	params.Set("num", fmt.Sprintf("%d", limit))
	params.Set("api_key", c.apiKey)
	if q.StartYear > 0 {
		params.Set("as_ylo", fmt.Sprintf("%d", q.StartYear))
	}
	if q.EndYear > 0 {
		params.Set("as_yhi", fmt.Sprintf("%d", q.EndYear))
	}

	endpoint := c.baseURL + "/search.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build scholar request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scholar request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("scholar search failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode scholar response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("scholar search failed: %s", parsed.Error)
	}

	results := make([]Result, 0, limit)
	for _, r := range parsed.OrganicResults {
		if len(results) >= limit {
			break
		}
		results = append(results, Result{
			Title:   r.Title,
			Link:    r.Link,
			Snippet: r.Snippet,
			Source:  r.PublicationInfo.Summary,
		})
	}
	return results, nil
}

var _ Searcher = (*SerpClient)(nil)
