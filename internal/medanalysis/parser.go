package medanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

const labExtractionPrompt = `Analyze this medical report text and extract structured information.

Text to analyze:
%s

IMPORTANT: Extract patient information carefully from the text. Look for patterns like
"Patient: [Name], [Age] Years, [Gender]" or "Name: [Name], Age: [Age], Gender: [Gender]".

Provide a JSON response with exactly this structure:
{
  "patient_info": {
    "name": "actual patient name, or 'Not specified' if not found",
    "age": "actual age (e.g., '45 Years'), or 'Not specified' if not found",
    "gender": "Male/Female, or 'Not specified' if not found",
    "report_date": "report date, or 'Not specified' if not found",
    "lab_number": "lab or reference number, or 'Not specified' if not found"
  },
  "test_categories": [
    {
      "category": "test category name (e.g., 'Complete Blood Count', 'Lipid Profile')",
      "tests": [
        {
          "test_name": "name of test",
          "value": "measured value",
          "unit": "unit of measurement",
          "reference_range": "normal range",
          "status": "normal/high/low/borderline/unknown"
        }
      ]
    }
  ],
  "abnormal_findings": ["abnormal test results with brief description"],
  "critical_values": ["critical or extremely abnormal values"]
}

Always include all required fields even if empty or "Not specified".
Only return valid JSON, no additional text or explanations.`

const diagnosisPrompt = `As a medical AI assistant, analyze these comprehensive lab results and provide detailed insights:

%s

Provide analysis in the following JSON format:
{
  "risk_assessment": {
    "overall_risk": "low/moderate/high",
    "cardiovascular_risk": "low/moderate/high",
    "diabetes_risk": "low/moderate/high",
    "risk_factors": ["identified risk factors"]
  },
  "potential_conditions": [
    {
      "condition": "condition name",
      "probability": "low/moderate/high",
      "supporting_evidence": ["specific test results that support this"],
      "description": "brief clinical explanation"
    }
  ],
  "recommendations": [
    {
      "category": "lifestyle/dietary/medical/follow-up",
      "recommendation": "specific actionable recommendation",
      "priority": "low/medium/high",
      "rationale": "why this recommendation is important"
    }
  ],
  "follow_up_tests": ["suggested additional tests with rationale"],
  "red_flags": ["critical findings requiring immediate medical attention"],
  "positive_findings": ["normal or good results worth highlighting"],
  "summary": "comprehensive overall assessment including key findings and next steps"
}

Consider HbA1c for diabetes, the lipid profile for cardiovascular risk, liver and
kidney markers, vitamin levels, blood counts and thyroid function.
Only return valid JSON.`

// LabParser decodes cleaned model output into LabData, re-invoking generation
// on decode or validation failure up to the attempt bound, then degrading to
// the regex fallback structure. It never returns an error.
type LabParser struct {
	exec *StageExecutor
}

func NewLabParser(gen Generator) *LabParser {
	return &LabParser{exec: NewStageExecutor(gen, MaxParseAttempts)}
}

func (p *LabParser) Parse(ctx context.Context, text string) (LabData, StageAttemptMetrics) {
	out := LabData{}
	parts := []PromptPart{TextPart(fmt.Sprintf(labExtractionPrompt, text))}
	m, err := p.exec.Run(ctx, "parse", parts, &out, validateLabShape)
	if err != nil {
		log.Printf("medanalysis parse exhausted after %d attempts, using fallback structure: %v", m.Attempts, err)
		return FallbackStructure(text), m
	}
	out.Origin = OriginStructured
	EnrichTestStatus(&out)
	return out, m
}

// DiagnosisParser synthesizes clinical insights over parsed lab data, with a
// smaller retry budget than extraction.
type DiagnosisParser struct {
	exec *StageExecutor
}

func NewDiagnosisParser(gen Generator) *DiagnosisParser {
	return &DiagnosisParser{exec: NewStageExecutor(gen, MaxDiagnosisAttempts)}
}

func (p *DiagnosisParser) Analyze(ctx context.Context, parsed LabData) (Diagnosis, StageAttemptMetrics) {
	out := Diagnosis{}
	encoded, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return FallbackDiagnosis(), StageAttemptMetrics{}
	}
	parts := []PromptPart{TextPart(fmt.Sprintf(diagnosisPrompt, string(encoded)))}
	m, err := p.exec.Run(ctx, "diagnose", parts, &out, validateDiagnosisShape)
	if err != nil {
		log.Printf("medanalysis diagnose exhausted after %d attempts, using fallback diagnosis: %v", m.Attempts, err)
		return FallbackDiagnosis(), m
	}
	out.Origin = OriginStructured
	return out, m
}

// Validation checks key presence and gross type shape only, not deep
// field-level types.

func validateLabShape(raw map[string]any) error {
	if err := requireKeys(raw, "patient_info", "test_categories", "abnormal_findings"); err != nil {
		return err
	}
	if _, ok := raw["patient_info"].(map[string]any); !ok {
		return fmt.Errorf("patient_info is not an object")
	}
	if _, ok := raw["test_categories"].([]any); !ok {
		return fmt.Errorf("test_categories is not a list")
	}
	if _, ok := raw["abnormal_findings"].([]any); !ok {
		return fmt.Errorf("abnormal_findings is not a list")
	}
	return nil
}

func validateDiagnosisShape(raw map[string]any) error {
	return requireKeys(raw,
		"risk_assessment", "potential_conditions", "recommendations",
		"follow_up_tests", "red_flags", "summary")
}

func requireKeys(raw map[string]any, keys ...string) error {
	for _, k := range keys {
		if _, ok := raw[k]; !ok {
			return fmt.Errorf("missing required key %q", k)
		}
	}
	return nil
}
