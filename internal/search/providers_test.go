package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearXNGSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("format = %q", r.URL.Query().Get("format"))
		}
		if r.URL.Query().Get("language") != "ru" {
			t.Errorf("language = %q", r.URL.Query().Get("language"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[
			{"title":"One","url":"https://one.test","content":"first"},
			{"title":"Two","url":"https://two.test","content":"second"},
			{"title":"Three","url":"https://three.test","content":"third"}
		]}`)
	}))
	defer srv.Close()

	p := NewSearXNG(srv.URL + "/")
	results, err := p.Search(context.Background(), "transformers", Options{Count: 2, Language: "ru"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("count cap ignored: got %d results", len(results))
	}
	if results[0].Title != "One" || results[0].Snippet != "first" {
		t.Errorf("results[0] = %+v", results[0])
	}
}

func TestSearXNGErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewSearXNG(srv.URL).Search(context.Background(), "x", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry status and body: %v", err)
	}
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Subscription-Token"); got != "secret" {
			t.Errorf("token = %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "5" {
			t.Errorf("count = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"web":{"results":[
			{"title":"Paper","url":"https://arxiv.org/abs/1706.03762","description":"the transformer"}
		]}}`)
	}))
	defer srv.Close()

	p := NewBrave("secret")
	p.endpoint = srv.URL
	results, err := p.Search(context.Background(), "attention", Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].URL != "https://arxiv.org/abs/1706.03762" {
		t.Errorf("results = %+v", results)
	}
}

func TestProviderNames(t *testing.T) {
	if got := NewSearXNG("http://x").Name(); got != "searxng" {
		t.Errorf("searxng Name() = %q", got)
	}
	if got := NewBrave("k").Name(); got != "brave" {
		t.Errorf("brave Name() = %q", got)
	}
}
