package medsearch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

type FetchStatus string

const (
	FetchSuccess  FetchStatus = "success"
	FetchFallback FetchStatus = "fallback"
	FetchError    FetchStatus = "error"
)

// FetchResult pairs one requested medicine name with its lookup outcome. A
// result is produced for every requested name regardless of individual
// failures.
type FetchResult struct {
	Name   string        `json:"name"`
	Status FetchStatus   `json:"status"`
	Info   *MedicineInfo `json:"info,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Lookuper resolves a single medicine name.
type Lookuper interface {
	Lookup(ctx context.Context, name string) (MedicineInfo, error)
}

const (
	defaultWorkers     = 5
	defaultTaskTimeout = 30 * time.Second
)

// Fetcher fans medicine lookups out across a bounded worker pool. Each task
// gets its own deadline so one slow lookup cannot starve the batch, and task
// failures never cross task boundaries.
type Fetcher struct {
	source      Lookuper
	workers     int
	taskTimeout time.Duration
}

func NewFetcher(source Lookuper) *Fetcher {
	return &Fetcher{source: source, workers: defaultWorkers, taskTimeout: defaultTaskTimeout}
}

// FetchAll resolves every name and returns results in completion order. A
// single name skips the pool and runs on the caller's goroutine.
func (f *Fetcher) FetchAll(ctx context.Context, names []string) []FetchResult {
	if len(names) == 0 {
		return []FetchResult{}
	}
	if len(names) == 1 {
		return []FetchResult{f.fetchOne(ctx, names[0])}
	}

	sem := make(chan struct{}, f.workers)
	results := make([]FetchResult, 0, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := f.fetchOne(ctx, name)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(name)
	}
	wg.Wait()
	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, name string) (res FetchResult) {
	res = FetchResult{Name: name}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("medsearch fetch panic name=%q: %v", name, r)
			res.Status = FetchError
			res.Info = nil
			res.Error = fmt.Sprintf("lookup panic: %v", r)
		}
	}()

	taskCtx, cancel := context.WithTimeout(ctx, f.taskTimeout)
	defer cancel()

	info, err := f.source.Lookup(taskCtx, name)
	if err != nil {
		res.Status = FetchError
		res.Error = err.Error()
		return res
	}
	res.Info = &info
	if info.Fallback {
		res.Status = FetchFallback
	} else {
		res.Status = FetchSuccess
	}
	return res
}
