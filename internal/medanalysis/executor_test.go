package medanalysis

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeGen struct {
	responses []string
	errs      []error
	i         int
}

func (f *fakeGen) Generate(context.Context, []PromptPart) (string, error) {
	idx := f.i
	f.i++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", nil
}

func newTestExecutor(gen Generator, maxAttempts int) *StageExecutor {
	exec := NewStageExecutor(gen, maxAttempts)
	exec.sleep = func(time.Duration) {}
	return exec
}

func TestStageExecutorRetryThenSuccess(t *testing.T) {
	gen := &fakeGen{responses: []string{"not json at all", `{"value": "ok"}`}}
	exec := newTestExecutor(gen, 3)
	out := map[string]any{}
	metrics, err := exec.Run(context.Background(), "parse", []PromptPart{TextPart("p")}, &out,
		func(raw map[string]any) error { return requireKeys(raw, "value") })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metrics.Attempts != 2 || metrics.ContentRetries != 1 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if out["value"] != "ok" {
		t.Fatalf("out not populated: %v", out)
	}
}

func TestStageExecutorExhaustsAttemptBudget(t *testing.T) {
	gen := &fakeGen{responses: []string{"bad", "bad", "bad", "bad"}}
	exec := newTestExecutor(gen, 3)
	out := map[string]any{}
	metrics, err := exec.Run(context.Background(), "parse", []PromptPart{TextPart("p")}, &out,
		func(map[string]any) error { return nil })
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if metrics.Attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", metrics.Attempts)
	}
	if gen.i != 3 {
		t.Fatalf("expected exactly 3 upstream calls, got %d", gen.i)
	}
}

func TestStageExecutorTransportRetriesTransient(t *testing.T) {
	gen := &fakeGen{
		errs:      []error{errors.New("status code: 500"), errors.New("status code: 429")},
		responses: []string{"", "", `{"value": 1}`},
	}
	exec := newTestExecutor(gen, 3)
	out := map[string]any{}
	metrics, err := exec.Run(context.Background(), "parse", []PromptPart{TextPart("p")}, &out,
		func(raw map[string]any) error { return requireKeys(raw, "value") })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metrics.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", metrics.Attempts)
	}
}

func TestStageExecutorClientErrorFailsFast(t *testing.T) {
	gen := &fakeGen{errs: []error{errors.New("status code: 401")}}
	exec := newTestExecutor(gen, 3)
	out := map[string]any{}
	_, err := exec.Run(context.Background(), "parse", []PromptPart{TextPart("p")}, &out,
		func(map[string]any) error { return nil })
	if err == nil {
		t.Fatal("expected error")
	}
	if gen.i != 1 {
		t.Fatalf("client error should not retry, got %d calls", gen.i)
	}
}

func TestStageExecutorValidationFailureRetries(t *testing.T) {
	gen := &fakeGen{responses: []string{`{"wrong": 1}`, `{"value": 1}`}}
	exec := newTestExecutor(gen, 3)
	out := map[string]any{}
	metrics, err := exec.Run(context.Background(), "parse", []PromptPart{TextPart("p")}, &out,
		func(raw map[string]any) error { return requireKeys(raw, "value") })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metrics.ContentRetries != 1 {
		t.Fatalf("expected one content retry, got %d", metrics.ContentRetries)
	}
}
