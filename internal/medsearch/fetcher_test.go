package medsearch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type scriptedLookuper struct {
	mu       sync.Mutex
	byName   map[string]func() (MedicineInfo, error)
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *scriptedLookuper) Lookup(ctx context.Context, name string) (MedicineInfo, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		old := s.peak.Load()
		if cur <= old || s.peak.CompareAndSwap(old, cur) {
			break
		}
	}

	s.mu.Lock()
	fn := s.byName[name]
	s.mu.Unlock()
	if fn == nil {
		return MedicineInfo{Name: name}, nil
	}
	return fn()
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	src := &scriptedLookuper{byName: map[string]func() (MedicineInfo, error){
		"Good":     func() (MedicineInfo, error) { return MedicineInfo{Name: "Good"}, nil },
		"Degraded": func() (MedicineInfo, error) { return fallbackInfo("Degraded"), nil },
		"Dead":     func() (MedicineInfo, error) { return MedicineInfo{}, errors.New("connection refused") },
		"Panicky":  func() (MedicineInfo, error) { panic("lookup exploded") },
	}}
	f := NewFetcher(src)
	results := f.FetchAll(context.Background(), []string{"Good", "Degraded", "Dead", "Panicky"})
	if len(results) != 4 {
		t.Fatalf("results = %d", len(results))
	}
	byName := map[string]FetchResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if byName["Good"].Status != FetchSuccess {
		t.Fatalf("Good = %+v", byName["Good"])
	}
	if byName["Degraded"].Status != FetchFallback {
		t.Fatalf("Degraded = %+v", byName["Degraded"])
	}
	if byName["Dead"].Status != FetchError || byName["Dead"].Error == "" {
		t.Fatalf("Dead = %+v", byName["Dead"])
	}
	if byName["Panicky"].Status != FetchError {
		t.Fatalf("Panicky = %+v", byName["Panicky"])
	}
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	src := &scriptedLookuper{byName: map[string]func() (MedicineInfo, error){}}
	slow := func() (MedicineInfo, error) {
		time.Sleep(20 * time.Millisecond)
		return MedicineInfo{}, nil
	}
	names := make([]string, 12)
	for i := range names {
		names[i] = string(rune('a' + i))
		src.byName[names[i]] = slow
	}
	f := NewFetcher(src)
	results := f.FetchAll(context.Background(), names)
	if len(results) != len(names) {
		t.Fatalf("results = %d", len(results))
	}
	if peak := src.peak.Load(); peak > defaultWorkers {
		t.Fatalf("peak concurrency %d exceeds worker bound %d", peak, defaultWorkers)
	}
}

func TestFetchAllSingleNameRunsSynchronously(t *testing.T) {
	var sawDeadline bool
	src := &deadlineCheckLookuper{check: func(ctx context.Context) {
		_, sawDeadline = ctx.Deadline()
	}}
	f := NewFetcher(src)
	results := f.FetchAll(context.Background(), []string{"Only"})
	if len(results) != 1 || results[0].Status != FetchSuccess {
		t.Fatalf("results = %+v", results)
	}
	if !sawDeadline {
		t.Fatal("per-task deadline missing on singleton path")
	}
}

func TestFetchAllEmptyInput(t *testing.T) {
	f := NewFetcher(&scriptedLookuper{})
	if results := f.FetchAll(context.Background(), nil); len(results) != 0 {
		t.Fatalf("results = %v", results)
	}
}

func TestFetchAllTaskTimeout(t *testing.T) {
	src := &deadlineCheckLookuper{check: func(ctx context.Context) {
		<-ctx.Done()
	}, err: context.DeadlineExceeded}
	f := NewFetcher(src)
	f.taskTimeout = 10 * time.Millisecond
	results := f.FetchAll(context.Background(), []string{"Slow", "AlsoSlow"})
	for _, r := range results {
		if r.Status != FetchError {
			t.Fatalf("result = %+v", r)
		}
	}
}

type deadlineCheckLookuper struct {
	check func(ctx context.Context)
	err   error
}

func (d *deadlineCheckLookuper) Lookup(ctx context.Context, name string) (MedicineInfo, error) {
	if d.check != nil {
		d.check(ctx)
	}
	if d.err != nil {
		return MedicineInfo{}, d.err
	}
	return MedicineInfo{Name: name}, nil
}
