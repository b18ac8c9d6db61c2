package medsearch

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// MedicineInfo is the availability summary for one medicine. Fallback marks
// entries synthesized locally after an unsuccessful search.
type MedicineInfo struct {
	Name         string `json:"name"`
	Availability string `json:"availability"`
	PriceRange   string `json:"price_range"`
	Description  string `json:"description"`
	SourceURL    string `json:"source_url,omitempty"`

	Fallback bool `json:"-"`
}

// Searcher is the subset of Client the medicine source needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Source resolves medicine names to availability info through web search.
type Source struct {
	searcher Searcher
}

func NewSource(searcher Searcher) *Source {
	return &Source{searcher: searcher}
}

var priceRe = regexp.MustCompile(`(?:₹|Rs\.?|INR|\$)\s*\d+(?:[.,]\d+)?(?:\s*(?:-|to)\s*(?:₹|Rs\.?|INR|\$)?\s*\d+(?:[.,]\d+)?)?`)

// Lookup searches for one medicine. Search failures degrade to a locally
// synthesized entry; only context cancellation and deadline expiry propagate
// as errors, so pooled callers can distinguish degraded from dead.
func (s *Source) Lookup(ctx context.Context, name string) (MedicineInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return MedicineInfo{}, fmt.Errorf("empty medicine name")
	}

	query := fmt.Sprintf("%s medicine price availability", name)
	results, err := s.searcher.Search(ctx, query, 1)
	if err != nil {
		if ctx.Err() != nil {
			return MedicineInfo{}, ctx.Err()
		}
		log.Printf("medsearch lookup failed name=%q, using fallback info: %v", name, err)
		return fallbackInfo(name), nil
	}
	if len(results) == 0 {
		return fallbackInfo(name), nil
	}

	top := results[0]
	info := MedicineInfo{
		Name:         name,
		Availability: "Available - check with local pharmacies",
		Description:  summarize(top.Description),
		SourceURL:    top.URL,
	}
	if m := priceRe.FindString(top.Title + " " + top.Description); m != "" {
		info.PriceRange = m
	} else {
		info.PriceRange = "Price varies by pharmacy"
	}
	return info, nil
}

func fallbackInfo(name string) MedicineInfo {
	return MedicineInfo{
		Name:         name,
		Availability: "Unknown - verify with your pharmacist",
		PriceRange:   "Price information unavailable",
		Description:  "Common medicine. Please consult your pharmacist for detailed information.",
		Fallback:     true,
	}
}

func summarize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "No description available"
	}
	runes := []rune(s)
	if len(runes) > 240 {
		return string(runes[:240]) + "..."
	}
	return s
}
