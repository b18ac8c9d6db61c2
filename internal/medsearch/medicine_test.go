package medsearch

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeSearcher struct {
	results []SearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]SearchResult, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestLookupBuildsExpectedQuery(t *testing.T) {
	fs := &fakeSearcher{results: []SearchResult{{Title: "Metformin", URL: "https://x", Description: "Rs. 35 per strip of 10"}}}
	s := NewSource(fs)
	info, err := s.Lookup(context.Background(), "Metformin")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(fs.queries) != 1 || fs.queries[0] != "Metformin medicine price availability" {
		t.Fatalf("queries = %v", fs.queries)
	}
	if info.Fallback {
		t.Fatal("unexpected fallback")
	}
	if info.PriceRange != "Rs. 35" {
		t.Fatalf("price = %q", info.PriceRange)
	}
	if info.SourceURL != "https://x" {
		t.Fatalf("source = %q", info.SourceURL)
	}
}

func TestLookupSearchFailureDegradesToFallback(t *testing.T) {
	fs := &fakeSearcher{err: errors.New("status code: 500")}
	s := NewSource(fs)
	info, err := s.Lookup(context.Background(), "Atorvastatin")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !info.Fallback {
		t.Fatal("expected fallback info")
	}
	if info.Name != "Atorvastatin" {
		t.Fatalf("name = %q", info.Name)
	}
	if !strings.Contains(info.Description, "pharmacist") {
		t.Fatalf("description = %q", info.Description)
	}
}

func TestLookupEmptyResultsDegradesToFallback(t *testing.T) {
	s := NewSource(&fakeSearcher{})
	info, err := s.Lookup(context.Background(), "Obscurol")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !info.Fallback {
		t.Fatal("expected fallback info")
	}
}

func TestLookupCancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fs := &fakeSearcher{err: context.Canceled}
	s := NewSource(fs)
	if _, err := s.Lookup(ctx, "Metformin"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestLookupRejectsEmptyName(t *testing.T) {
	s := NewSource(&fakeSearcher{})
	if _, err := s.Lookup(context.Background(), "   "); err == nil {
		t.Fatal("expected error")
	}
}
