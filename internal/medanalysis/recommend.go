package medanalysis

import (
	"fmt"
	"strings"
)

var priorityLabels = map[string]string{
	"low":    "[LOW]",
	"medium": "[MEDIUM]",
	"high":   "[HIGH]",
}

const defaultPriorityLabel = "[MEDIUM]"

// RenderRecommendations flattens structured recommendation items into the
// display form "* *Category* - [PRIORITY] text (Rationale: why)".
func RenderRecommendations(items []RecommendationItem) []string {
	var out []string
	for _, item := range items {
		rec := strings.TrimSpace(item.Recommendation)
		if rec == "" {
			continue
		}
		line := fmt.Sprintf("* *%s* - %s %s", titleCase(item.Category), priorityLabel(item.Priority), rec)
		if rationale := strings.TrimSpace(item.Rationale); rationale != "" {
			line += fmt.Sprintf(" (Rationale: %s)", rationale)
		}
		out = append(out, line)
	}
	return out
}

func priorityLabel(priority string) string {
	if label, ok := priorityLabels[strings.ToLower(strings.TrimSpace(priority))]; ok {
		return label
	}
	return defaultPriorityLabel
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "General"
	}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// BuildKeyFindings lists abnormal and critical values first, then notable
// enriched tests, for the flat keyFindings field.
func BuildKeyFindings(lab LabData, diag Diagnosis) []string {
	var findings []string
	for _, f := range lab.AbnormalFindings {
		if strings.TrimSpace(f) != "" {
			findings = append(findings, f)
		}
	}
	for _, cv := range lab.CriticalValues {
		if strings.TrimSpace(cv) != "" {
			findings = append(findings, "Critical: "+cv)
		}
	}
	for _, cat := range lab.TestCategories {
		for _, t := range cat.Tests {
			if t.ClinicalSignificance != "" && (t.Status == StatusHigh || t.Status == StatusBorderline || t.Status == StatusLow) {
				findings = append(findings, FindingLine(t)+" - "+t.ClinicalSignificance)
			}
		}
	}
	if len(findings) == 0 {
		findings = append(findings, "No significant abnormalities detected in the analyzed results")
	}
	return findings
}

// BuildRiskWarnings combines red flags with elevated risk dimensions.
func BuildRiskWarnings(diag Diagnosis) []string {
	var warnings []string
	for _, rf := range diag.RedFlags {
		if strings.TrimSpace(rf) != "" {
			warnings = append(warnings, rf)
		}
	}
	ra := diag.RiskAssessment
	if isElevated(ra.CardiovascularRisk) {
		warnings = append(warnings, fmt.Sprintf("Cardiovascular risk assessed as %s", strings.ToLower(ra.CardiovascularRisk)))
	}
	if isElevated(ra.DiabetesRisk) {
		warnings = append(warnings, fmt.Sprintf("Diabetes risk assessed as %s", strings.ToLower(ra.DiabetesRisk)))
	}
	for _, cond := range diag.PotentialConditions {
		if cond.Probability == ProbabilityHigh && cond.Condition != "" {
			warnings = append(warnings, fmt.Sprintf("Possible %s (high probability)", cond.Condition))
		}
	}
	return warnings
}

func isElevated(risk string) bool {
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "moderate", "high":
		return true
	}
	return false
}
