package medanalysis

import (
	"strings"
	"testing"
)

func TestDeterministicRecommendationsDiabetesGroup(t *testing.T) {
	lab := LabData{AbnormalFindings: []string{"HbA1c elevated at 7.4%"}}
	got := DeterministicRecommendations(lab, Diagnosis{})
	joined := strings.Join(got, "\n")
	if !strings.Contains(joined, "[HIGH]") || !strings.Contains(joined, "diabetes") {
		t.Fatalf("got %v", got)
	}
	if !strings.Contains(joined, "HbA1c test in 3 months") {
		t.Fatalf("missing follow-up item: %v", got)
	}
}

func TestDeterministicRecommendationsElevationGate(t *testing.T) {
	// A glucose mention without an elevated qualifier should not fire the
	// diabetes group.
	lab := LabData{AbnormalFindings: []string{"Fasting glucose within range"}}
	got := DeterministicRecommendations(lab, Diagnosis{})
	if strings.Contains(strings.Join(got, "\n"), "endocrinologist") {
		t.Fatalf("diabetes group fired without elevation: %v", got)
	}
}

func TestDeterministicRecommendationsGroupOrder(t *testing.T) {
	lab := LabData{AbnormalFindings: []string{
		"Creatinine elevated",
		"LDL cholesterol high",
	}}
	got := DeterministicRecommendations(lab, Diagnosis{})
	joined := strings.Join(got, "\n")
	lipidAt := strings.Index(joined, "lipid")
	renalAt := strings.Index(joined, "nephrologist")
	if lipidAt < 0 || renalAt < 0 {
		t.Fatalf("got %v", got)
	}
	if lipidAt > renalAt {
		t.Fatalf("groups out of declaration order: %v", got)
	}
}

func TestDeterministicRecommendationsRiskAndConditions(t *testing.T) {
	diag := Diagnosis{
		RiskAssessment:      RiskAssessment{OverallRisk: "high"},
		PotentialConditions: []PotentialCondition{{Condition: "Chronic kidney disease"}},
	}
	got := DeterministicRecommendations(LabData{}, diag)
	joined := strings.Join(got, "\n")
	if !strings.Contains(joined, "immediate consultation") {
		t.Fatalf("missing high-risk item: %v", got)
	}
	if !strings.Contains(joined, "nephrologist") {
		t.Fatalf("missing specialist referral: %v", got)
	}
}

func TestDeterministicRecommendationsNeverEmpty(t *testing.T) {
	got := DeterministicRecommendations(LabData{}, Diagnosis{})
	if len(got) != len(genericRecommendations) {
		t.Fatalf("got %v", got)
	}
	for _, line := range got {
		if !strings.HasPrefix(line, "* *") {
			t.Fatalf("bad line shape: %q", line)
		}
	}
}
