package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ArtyomZemlyak/tg-note/internal/httpkit"
)

// braveEndpoint is the hosted Brave Search API.
const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search web API. Authentication is a
// subscription token per request.
type Brave struct {
	apiKey string
	client *http.Client

	// endpoint is overridden in tests.
	endpoint string
}

// NewBrave builds the provider with the given subscription token.
func NewBrave(apiKey string) *Brave {
	return &Brave{
		apiKey:   apiKey,
		client:   httpkit.NewClient(httpkit.WithTimeout(providerTimeout)),
		endpoint: braveEndpoint,
	}
}

func (b *Brave) Name() string { return "brave" }

func (b *Brave) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	limit := opts.Count
	if limit <= 0 {
		limit = defaultCount
	}

	q := url.Values{
		"q":     {query},
		"count": {strconv.Itoa(limit)},
	}
	if opts.Language != "" {
		q.Set("search_lang", opts.Language)
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	headers := map[string]string{"X-Subscription-Token": b.apiKey}
	if err := getJSON(ctx, b.client, b.endpoint+"?"+q.Encode(), headers, &payload); err != nil {
		return nil, fmt.Errorf("brave: %w", err)
	}

	results := make([]Result, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return results, nil
}
