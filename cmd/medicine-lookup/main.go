package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medsearch"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/recordstore"
)

const cacheMaxAge = 24 * time.Hour

func main() {
	dbPath := flag.String("db", "", "SQLite database path for result caching (optional)")
	baseURL := flag.String("base-url", medsearch.DefaultBaseURL, "Search API base URL")
	flag.Parse()

	names := flag.Args()
	if len(names) == 0 {
		log.Fatal("usage: medicine-lookup [flags] <medicine name> [more names...]")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := medsearch.NewClient(medsearch.Config{
		APIKey:  requiredEnv("FIRECRAWL_API_KEY"),
		BaseURL: *baseURL,
	})
	if err != nil {
		log.Fatal(err)
	}
	fetcher := medsearch.NewFetcher(medsearch.NewSource(client))

	var store *recordstore.Store
	if *dbPath != "" {
		store, err = recordstore.Open(*dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer store.Close()
	}

	toFetch, results := splitCached(ctx, store, names)
	if len(toFetch) > 0 {
		fetched := fetcher.FetchAll(ctx, toFetch)
		for _, res := range fetched {
			if store != nil {
				if err := store.CacheMedicineInfo(ctx, res); err != nil {
					log.Printf("cache write failed name=%q: %v", res.Name, err)
				}
			}
			results = append(results, res)
		}
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatalf("encode results: %v", err)
	}
	fmt.Println(string(out))
}

func splitCached(ctx context.Context, store *recordstore.Store, names []string) (toFetch []string, cached []medsearch.FetchResult) {
	for _, name := range names {
		if store != nil {
			res, err := store.CachedMedicineInfo(ctx, name, cacheMaxAge)
			if err == nil {
				cached = append(cached, res)
				continue
			}
			if !errors.Is(err, recordstore.ErrNotFound) {
				log.Printf("cache read failed name=%q: %v", name, err)
			}
		}
		toFetch = append(toFetch, name)
	}
	return toFetch, cached
}

func requiredEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Fatalf("missing required env var %s", key)
	}
	return v
}
