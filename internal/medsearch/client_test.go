package medsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestSearchSendsQueryAndAuth(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(searchAPIResponse{
			Success: true,
			Data:    []SearchResult{{Title: "Metformin 500mg", URL: "https://example.com/m", Description: "Rs. 35 per strip"}},
		})
	})

	results, err := c.Search(context.Background(), "Metformin medicine price availability", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotBody["query"] != "Metformin medicine price availability" {
		t.Fatalf("query = %v", gotBody["query"])
	}
	if gotBody["limit"] != float64(1) || gotBody["timeout"] != float64(searchTimeoutMS) {
		t.Fatalf("body = %v", gotBody)
	}
	if len(results) != 1 || results[0].Title != "Metformin 500mg" {
		t.Fatalf("results = %v", results)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	calls := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(searchAPIResponse{Success: true, Data: []SearchResult{{Title: "ok"}}})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := c.Search(ctx, "q", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
}

func TestSearchAuthFailureDoesNotRetry(t *testing.T) {
	calls := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	if _, err := c.Search(context.Background(), "q", 1); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestSearchHonorsRetryAfter(t *testing.T) {
	calls := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(searchAPIResponse{Success: true})
	})
	if _, err := c.Search(context.Background(), "q", 1); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestSearchSuccessFalseIsError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchAPIResponse{Success: false, Error: "quota exceeded"})
	})
	if _, err := c.Search(context.Background(), "q", 1); err == nil {
		t.Fatal("expected error")
	}
}
