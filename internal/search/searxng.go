package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ArtyomZemlyak/tg-note/internal/httpkit"
)

// defaultCount is how many hits a provider returns when the caller
// does not choose.
const defaultCount = 5

// providerTimeout bounds one search round trip. Searches feed an
// interactive agent loop; a slow provider is worse than no provider.
const providerTimeout = 15 * time.Second

// SearXNG queries a self-hosted SearXNG instance through its JSON API.
// No API key: access control is the instance's own problem.
type SearXNG struct {
	baseURL string
	client  *http.Client
}

// NewSearXNG builds the provider for an instance root such as
// "http://localhost:8080".
func NewSearXNG(baseURL string) *SearXNG {
	return &SearXNG{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpkit.NewClient(httpkit.WithTimeout(providerTimeout)),
	}
}

func (s *SearXNG) Name() string { return "searxng" }

func (s *SearXNG) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	limit := opts.Count
	if limit <= 0 {
		limit = defaultCount
	}

	q := url.Values{
		"q":      {query},
		"format": {"json"},
	}
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := getJSON(ctx, s.client, s.baseURL+"/search?"+q.Encode(), nil, &payload); err != nil {
		return nil, fmt.Errorf("searxng: %w", err)
	}

	results := make([]Result, 0, limit)
	for _, r := range payload.Results {
		if len(results) == limit {
			break
		}
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return results, nil
}

// getJSON issues a GET with optional extra headers and decodes the
// JSON body into out. Non-200 statuses become errors carrying a slice
// of the body.
func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
