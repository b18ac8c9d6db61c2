package prescription

import (
	"context"
	"strings"
	"testing"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medanalysis"
)

type fakeGen struct {
	responses []string
	i         int
}

func (f *fakeGen) Generate(context.Context, []medanalysis.PromptPart) (string, error) {
	idx := f.i
	f.i++
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", nil
}

const validExtractionJSON = `{
  "medicines": [
    {"name": "Tab. Metformin 500mg", "dosage": "500mg", "frequency": "twice daily", "duration": "30 days", "instructions": "after food"},
    {"name": "Atorvastatin", "dosage": "10mg", "frequency": "at night", "duration": "30 days", "instructions": ""}
  ],
  "doctor_name": "Dr. Mehta",
  "date": "12/03/2025",
  "diagnosis": "Type 2 Diabetes",
  "notes": ""
}`

func TestAnalyzeTextStructured(t *testing.T) {
	gen := &fakeGen{responses: []string{"```json\n" + validExtractionJSON + "\n```"}}
	a := NewAnalyzer(gen)
	res, err := a.AnalyzeText(context.Background(), "prescription text")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if res.Confidence != medanalysis.ConfidencePrescription {
		t.Fatalf("confidence = %v", res.Confidence)
	}
	if res.AnalysisType != medanalysis.AnalysisTypePrescription {
		t.Fatalf("type = %q", res.AnalysisType)
	}
	if len(res.KeyFindings) != 2 {
		t.Fatalf("findings = %v", res.KeyFindings)
	}
	// Dosage form prefix scrubbed from the model output.
	if !strings.HasPrefix(res.KeyFindings[0], "Metformin ") {
		t.Fatalf("finding = %q", res.KeyFindings[0])
	}
	if !strings.Contains(res.Summary, "Dr. Mehta") {
		t.Fatalf("summary = %q", res.Summary)
	}
}

func TestMetforminDrivesGlucoseMonitoringRecommendation(t *testing.T) {
	gen := &fakeGen{responses: []string{validExtractionJSON}}
	a := NewAnalyzer(gen)
	res, err := a.AnalyzeText(context.Background(), "prescription text")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	found := false
	for _, rec := range res.Recommendations {
		if strings.Contains(rec, "Monitor blood glucose levels regularly") {
			found = true
			if !strings.Contains(rec, "[HIGH]") {
				t.Fatalf("glucose monitoring must be high priority: %q", rec)
			}
		}
	}
	if !found {
		t.Fatalf("missing glucose recommendation: %v", res.Recommendations)
	}
}

func TestAnalyzeTextDegradesToCommonMedicineScan(t *testing.T) {
	gen := &fakeGen{responses: []string{"not json", "still not json"}}
	a := NewAnalyzer(gen)
	res, err := a.AnalyzeText(context.Background(), "Patient should continue Metformin 500mg and Pantoprazole before breakfast.")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if gen.i != maxExtractionAttempts {
		t.Fatalf("upstream calls = %d", gen.i)
	}
	if res.Confidence != medanalysis.ConfidenceDegraded {
		t.Fatalf("confidence = %v", res.Confidence)
	}
	joined := strings.Join(res.KeyFindings, "\n")
	if !strings.Contains(joined, "Metformin") || !strings.Contains(joined, "Pantoprazole") {
		t.Fatalf("findings = %v", res.KeyFindings)
	}
}

func TestAnalyzeTextNoMedicinesStillSchemaComplete(t *testing.T) {
	empty := `{"medicines": [], "doctor_name": "Not specified", "date": "Not specified", "diagnosis": "Not specified", "notes": ""}`
	gen := &fakeGen{responses: []string{empty}}
	a := NewAnalyzer(gen)
	res, err := a.AnalyzeText(context.Background(), "illegible scrawl")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if res.Summary == "" || res.SimplifiedSummary == "" {
		t.Fatal("narrative fields empty")
	}
	if len(res.Recommendations) == 0 {
		t.Fatal("no recommendations")
	}
	if res.AIDisclaimer != medanalysis.Disclaimer {
		t.Fatal("missing disclaimer")
	}
	if res.Confidence != medanalysis.ConfidenceDegraded {
		t.Fatalf("confidence = %v", res.Confidence)
	}
}

func TestAnalyzeRecordRequiresContent(t *testing.T) {
	a := NewAnalyzer(&fakeGen{})
	_, err := a.AnalyzeRecord(context.Background(), medanalysis.RecordInput{})
	if err == nil || !medanalysis.IsInputError(err) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestMultiMedicationWarning(t *testing.T) {
	three := `{"medicines": [
	  {"name": "Metformin"}, {"name": "Amlodipine"}, {"name": "Atorvastatin"}
	], "doctor_name": "", "date": "", "diagnosis": "", "notes": ""}`
	gen := &fakeGen{responses: []string{three}}
	a := NewAnalyzer(gen)
	res, err := a.AnalyzeText(context.Background(), "x")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	joined := strings.Join(res.RiskWarnings, "\n")
	if !strings.Contains(joined, "combines 3 medicines") {
		t.Fatalf("warnings = %v", res.RiskWarnings)
	}
	recs := strings.Join(res.Recommendations, "\n")
	if !strings.Contains(recs, "pharmacist to check for interactions") {
		t.Fatalf("recommendations = %v", res.Recommendations)
	}
}
