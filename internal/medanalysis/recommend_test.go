package medanalysis

import (
	"strings"
	"testing"
)

func TestRenderRecommendationsFormat(t *testing.T) {
	items := []RecommendationItem{{
		Category:       "dietary",
		Recommendation: "Reduce refined sugar intake",
		Priority:       "high",
		Rationale:      "HbA1c is in the diabetic range",
	}}
	got := RenderRecommendations(items)
	want := "* *Dietary* - [HIGH] Reduce refined sugar intake (Rationale: HbA1c is in the diabetic range)"
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %v", got)
	}
}

func TestRenderRecommendationsDefaultPriority(t *testing.T) {
	items := []RecommendationItem{
		{Category: "lifestyle", Recommendation: "Walk daily"},
		{Category: "medical", Recommendation: "See a doctor", Priority: "urgent"},
	}
	got := RenderRecommendations(items)
	for _, line := range got {
		if !strings.Contains(line, "[MEDIUM]") {
			t.Fatalf("missing default priority: %q", line)
		}
	}
}

func TestRenderRecommendationsSkipsEmptyAndOmitsRationale(t *testing.T) {
	items := []RecommendationItem{
		{Category: "medical", Recommendation: ""},
		{Category: "follow-up", Recommendation: "Repeat test in 3 months", Priority: "low"},
	}
	got := RenderRecommendations(items)
	if len(got) != 1 {
		t.Fatalf("got %v", got)
	}
	if strings.Contains(got[0], "Rationale") {
		t.Fatalf("rationale rendered for empty rationale: %q", got[0])
	}
	if !strings.Contains(got[0], "[LOW]") {
		t.Fatalf("got %q", got[0])
	}
}

func TestBuildKeyFindingsOrdering(t *testing.T) {
	lab := LabData{
		AbnormalFindings: []string{"HbA1c elevated"},
		CriticalValues:   []string{"Potassium 6.8"},
		TestCategories: []TestCategory{{
			Tests: []TestResult{{
				TestName: "HbA1c", Value: "7.1", Unit: "%",
				Status: StatusHigh, ClinicalSignificance: "Suggests diabetes",
			}},
		}},
	}
	got := BuildKeyFindings(lab, Diagnosis{})
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
	if got[0] != "HbA1c elevated" {
		t.Fatalf("abnormal findings must come first: %v", got)
	}
	if !strings.HasPrefix(got[1], "Critical: ") {
		t.Fatalf("got %v", got)
	}
	if !strings.Contains(got[2], "Suggests diabetes") {
		t.Fatalf("got %v", got)
	}
}

func TestBuildKeyFindingsNeverEmpty(t *testing.T) {
	got := BuildKeyFindings(LabData{}, Diagnosis{})
	if len(got) != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestBuildRiskWarnings(t *testing.T) {
	diag := Diagnosis{
		RedFlags: []string{"Critically low hemoglobin"},
		RiskAssessment: RiskAssessment{
			CardiovascularRisk: "high",
			DiabetesRisk:       "low",
		},
		PotentialConditions: []PotentialCondition{
			{Condition: "Anemia", Probability: ProbabilityHigh},
			{Condition: "Thyroid disorder", Probability: ProbabilityLow},
		},
	}
	got := BuildRiskWarnings(diag)
	joined := strings.Join(got, "\n")
	if !strings.Contains(joined, "Critically low hemoglobin") {
		t.Fatalf("got %v", got)
	}
	if !strings.Contains(joined, "Cardiovascular risk assessed as high") {
		t.Fatalf("got %v", got)
	}
	if strings.Contains(joined, "Diabetes") {
		t.Fatalf("low risk should not warn: %v", got)
	}
	if !strings.Contains(joined, "Possible Anemia") || strings.Contains(joined, "Thyroid") {
		t.Fatalf("got %v", got)
	}
}
