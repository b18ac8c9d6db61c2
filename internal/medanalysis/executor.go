package medanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// StageExecutor wraps one extraction or synthesis step with a bounded retry
// loop. Each attempt re-issues the same prompt; there is no partial-result
// carryover between attempts. Transport failures classified as transient are
// retried with a short delay, content failures (bad JSON, failed validation)
// immediately consume the next attempt.
type StageExecutor struct {
	gen         Generator
	maxAttempts int
	sleep       func(time.Duration)
}

func NewStageExecutor(gen Generator, maxAttempts int) *StageExecutor {
	return &StageExecutor{gen: gen, maxAttempts: maxAttempts, sleep: time.Sleep}
}

// Run decodes the cleaned model response into out and checks the raw key set
// through validate. It returns an error only after the attempt budget is
// exhausted; callers route that to the next degradation tier.
func (e *StageExecutor) Run(ctx context.Context, stageName string, parts []PromptPart, out any, validate func(raw map[string]any) error) (StageAttemptMetrics, error) {
	metrics := StageAttemptMetrics{}
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		metrics.Attempts = attempt

		raw, err := e.gen.Generate(ctx, parts)
		if err != nil {
			class := classifyTransportError(err)
			log.Printf("medanalysis %s attempt=%d transport error: %v", stageName, attempt, err)
			lastErr = fmt.Errorf("%s transport failure: %w", stageName, err)
			if attempt < e.maxAttempts && (class == failureTimeout || class == failureRateLimit || class == failureServer) {
				e.sleep(backoffDelay(attempt))
				continue
			}
			return metrics, lastErr
		}

		clean := CleanResponse(raw)
		if clean == "" {
			metrics.ContentRetries++
			log.Printf("medanalysis %s attempt=%d empty response", stageName, attempt)
			lastErr = fmt.Errorf("%s failed: empty response", stageName)
			continue
		}

		var shape map[string]any
		if err := json.Unmarshal([]byte(clean), &shape); err != nil {
			metrics.ContentRetries++
			log.Printf("medanalysis %s attempt=%d json decode error: %v raw=%q", stageName, attempt, err, truncate(raw, 200))
			lastErr = fmt.Errorf("%s failed json parse: %w", stageName, err)
			continue
		}
		if err := validate(shape); err != nil {
			metrics.ContentRetries++
			log.Printf("medanalysis %s attempt=%d invalid structure: %v", stageName, attempt, err)
			lastErr = fmt.Errorf("%s failed validation: %w", stageName, err)
			continue
		}
		if err := json.Unmarshal([]byte(clean), out); err != nil {
			metrics.ContentRetries++
			log.Printf("medanalysis %s attempt=%d typed decode error: %v", stageName, attempt, err)
			lastErr = fmt.Errorf("%s failed typed decode: %w", stageName, err)
			continue
		}
		return metrics, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s failed after retries", stageName)
	}
	return metrics, lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
