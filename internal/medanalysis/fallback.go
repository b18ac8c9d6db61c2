package medanalysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackDiagnosis returns the canned insight block used when the diagnosis
// stage exhausts its retries. Conservative by construction: no conditions, no
// red flags, review-oriented recommendations only.
func FallbackDiagnosis() Diagnosis {
	return Diagnosis{
		RiskAssessment: RiskAssessment{
			OverallRisk:        "moderate",
			CardiovascularRisk: "moderate",
			DiabetesRisk:       "moderate",
			RiskFactors:        []string{"Automated risk analysis unavailable - manual review recommended"},
		},
		PotentialConditions: []PotentialCondition{},
		Recommendations: []RecommendationItem{
			{
				Category:       "medical",
				Recommendation: "Review these results with your healthcare provider",
				Priority:       "high",
				Rationale:      "Automated clinical analysis could not be completed",
			},
			{
				Category:       "follow-up",
				Recommendation: "Schedule a follow-up appointment to discuss the report",
				Priority:       "medium",
				Rationale:      "Professional interpretation ensures nothing is missed",
			},
		},
		FollowUpTests: []string{},
		RedFlags:      []string{},
		Summary: "The automated clinical analysis could not be completed for this report. " +
			"The extracted test results are available below and should be reviewed by a healthcare professional.",
		Origin: OriginFallback,
	}
}

// FormatAnalysisResponse flattens the lab data and diagnosis into the terminal
// response shape for a fully structured run.
func FormatAnalysisResponse(lab LabData, diag Diagnosis) AnalysisResult {
	confidence := ConfidenceStructured
	analysisType := AnalysisTypeLabReport
	if lab.Origin != OriginStructured || diag.Origin != OriginStructured {
		confidence = ConfidenceDegraded
	}

	recs := RenderRecommendations(diag.Recommendations)
	if diag.Origin != OriginStructured {
		recs = DeterministicRecommendations(lab, diag)
	}
	if len(recs) == 0 {
		recs = ExtractRecommendations("")
	}

	return AnalysisResult{
		Summary:           ComposeSummary(lab, diag),
		SimplifiedSummary: ComposeSimplifiedSummary(lab, diag),
		KeyFindings:       BuildKeyFindings(lab, diag),
		RiskWarnings:      BuildRiskWarnings(diag),
		Recommendations:   recs,
		Confidence:        confidence,
		AnalysisType:      analysisType,
		AIDisclaimer:      Disclaimer,
		StructuredData:    structuredDataMap(lab, diag),
	}
}

// FallbackAnalysis is the terminal degradation tier: a schema-complete result
// built from the record's own metadata without any model output, tagged with
// zero confidence.
func FallbackAnalysis(rec RecordInput, reason string) AnalysisResult {
	recordType := strings.TrimSpace(rec.RecordType)
	if recordType == "" {
		recordType = "medical"
	}
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = "Untitled"
	}
	desc := strings.TrimSpace(rec.Description)

	summary := fmt.Sprintf("This is a %s record titled %q.", recordType, title)
	if desc != "" {
		summary += " Description: " + truncate(desc, 200)
	} else {
		summary += " No description provided."
	}
	summary += " Automated analysis is currently unavailable."
	if r := strings.TrimSpace(reason); r != "" {
		summary += " Reason: " + r + "."
	}
	summary += " Please have the record reviewed manually by a healthcare professional."

	findings := []string{
		"Record Type: " + recordType,
		"Title: " + title,
	}
	if desc != "" {
		findings = append(findings, "Description: "+truncate(desc, 100))
	}

	return AnalysisResult{
		Summary: summary,
		SimplifiedSummary: fmt.Sprintf("%s record: %s. We could not read this record automatically; "+
			"please share it directly with your doctor for review.", capitalizeFirst(recordType), title),
		KeyFindings:     findings,
		RiskWarnings:    []string{"AI analysis unavailable - manual review recommended"},
		Recommendations: ExtractRecommendations(""),
		Confidence:      ConfidenceFallback,
		AnalysisType:    AnalysisTypeFallback,
		AIDisclaimer:    Disclaimer,
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// structuredDataMap round-trips the typed intermediates through JSON so the
// response carries the same key shapes the model produced.
func structuredDataMap(lab LabData, diag Diagnosis) map[string]any {
	out := map[string]any{}
	if m, err := toMap(lab); err == nil {
		out["lab_data"] = m
	}
	if m, err := toMap(diag); err == nil {
		out["ai_insights"] = m
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
