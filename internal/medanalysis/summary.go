package medanalysis

import (
	"fmt"
	"strings"
)

const (
	summaryMinWords = 80
	summaryMaxWords = 100
)

// Padding fragments appended when the assembled summary runs short. Generic on
// purpose: they must read sensibly after any report.
var summaryPadding = []string{
	"Regular monitoring of these health parameters helps track changes over time and supports early detection of developing conditions.",
	"Laboratory values should always be interpreted alongside clinical symptoms, medical history and physical examination findings.",
	"Small variations from reference ranges are common and do not always indicate a medical problem.",
	"Discussing these results with your healthcare provider will help determine whether any action or further testing is needed.",
}

// ComposeSummary assembles an overall narrative from parsed lab data and the
// diagnosis stage, bounded to a consistent word count.
func ComposeSummary(lab LabData, diag Diagnosis) string {
	var parts []string

	subject := "the patient"
	if name := strings.TrimSpace(lab.PatientInfo.Name); name != "" && name != "Not specified" {
		subject = name
	}
	parts = append(parts, fmt.Sprintf("This analysis is for %s and covers %d test categories.",
		subject, len(lab.TestCategories)))

	abnormal := countMeaningfulFindings(lab.AbnormalFindings)
	switch {
	case abnormal == 0:
		parts = append(parts, "All analyzed test results appear to be within or near their expected reference ranges.")
	case abnormal == 1:
		parts = append(parts, "One test result falls outside the expected reference range and deserves attention.")
	default:
		parts = append(parts, fmt.Sprintf("%d test results fall outside expected reference ranges and deserve attention.", abnormal))
	}

	if risk := strings.TrimSpace(diag.RiskAssessment.OverallRisk); risk != "" {
		parts = append(parts, fmt.Sprintf("The overall health risk based on these results is assessed as %s.", risk))
	}
	if len(diag.RedFlags) > 0 {
		parts = append(parts, fmt.Sprintf("There are %d findings that warrant prompt medical attention.", len(diag.RedFlags)))
	}
	if s := strings.TrimSpace(diag.Summary); s != "" {
		parts = append(parts, s)
	}

	return boundWords(strings.Join(parts, " "))
}

// ComposeSimplifiedSummary renders a plain-language version of the findings
// for non-clinical readers.
func ComposeSimplifiedSummary(lab LabData, diag Diagnosis) string {
	abnormal := countMeaningfulFindings(lab.AbnormalFindings)

	var b strings.Builder
	if abnormal == 0 {
		b.WriteString("Good news: your test results look normal overall. ")
	} else if abnormal == 1 {
		b.WriteString("Most of your results look fine, but one value needs a closer look. ")
	} else {
		fmt.Fprintf(&b, "Most of your results look fine, but %d values need a closer look. ", abnormal)
	}

	switch strings.ToLower(strings.TrimSpace(diag.RiskAssessment.OverallRisk)) {
	case "high":
		b.WriteString("Your results suggest some health risks that should be addressed soon. ")
	case "moderate":
		b.WriteString("Your results suggest a few things worth keeping an eye on. ")
	default:
		b.WriteString("Nothing in these results suggests an urgent problem. ")
	}

	if len(diag.Recommendations) > 0 {
		b.WriteString("There are specific recommendations below to help you stay on track. ")
	}
	b.WriteString("Please go over this report with your doctor, who can explain what these numbers mean for you.")
	return b.String()
}

// countMeaningfulFindings ignores the placeholder emitted by the fallback
// structure so it does not count as a real abnormality.
func countMeaningfulFindings(findings []string) int {
	n := 0
	for _, f := range findings {
		if strings.TrimSpace(f) == "" || f == unableToDetectFindings {
			continue
		}
		n++
	}
	return n
}

// boundWords pads short text with generic fragments and truncates long text so
// the result always lands within the summary word bounds.
func boundWords(s string) string {
	words := strings.Fields(s)
	for i := 0; len(words) < summaryMinWords; i++ {
		words = append(words, strings.Fields(summaryPadding[i%len(summaryPadding)])...)
	}
	if len(words) > summaryMaxWords {
		words = words[:summaryMaxWords]
		words[len(words)-1] += "..."
	}
	return strings.Join(words, " ")
}
