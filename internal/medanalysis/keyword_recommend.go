package medanalysis

import "strings"

// conditionRule maps abnormal-finding keywords to a fixed recommendation set.
// needsElevation gates the rule on the finding also mentioning an elevated
// value, for findings where a mere mention is not actionable.
type conditionRule struct {
	keywords       []string
	needsElevation bool
	recs           []string
}

// Declaration order is emission order.
var conditionRules = []conditionRule{
	{
		keywords:       []string{"hba1c", "glucose", "diabetes", "diabetic"},
		needsElevation: true,
		recs: []string{
			"* *Medical* - [HIGH] Consult an endocrinologist or primary care physician for diabetes management",
			"* *Dietary* - [HIGH] Follow a diabetes-friendly diet: limit carbohydrates, increase fiber intake, avoid sugary foods and beverages",
			"* *Lifestyle* - [HIGH] Engage in regular physical activity to improve insulin sensitivity and blood glucose control",
			"* *Follow-up Testing* - [HIGH] Schedule an HbA1c test in 3 months to monitor glucose control",
		},
	},
	{
		keywords:       []string{"cholesterol", "ldl", "hdl", "triglycerides", "lipid"},
		needsElevation: true,
		recs: []string{
			"* *Medical* - [HIGH] Discuss lipid-lowering therapy with your healthcare provider to reduce cardiovascular risk",
			"* *Dietary* - [HIGH] Adopt a heart-healthy diet: reduce saturated fats, increase omega-3 intake, limit processed foods",
			"* *Lifestyle* - [MEDIUM] Increase physical activity and maintain a healthy weight to improve the lipid profile",
			"* *Follow-up Testing* - [MEDIUM] Repeat the lipid panel in 3-6 months to assess response",
		},
	},
	{
		keywords: []string{"blood pressure", "hypertension", "bp"},
		recs: []string{
			"* *Medical* - [HIGH] Consult a healthcare provider for blood pressure management",
			"* *Lifestyle* - [HIGH] Reduce sodium intake, maintain a healthy weight and limit alcohol consumption",
			"* *Monitoring* - [HIGH] Monitor blood pressure regularly at home and keep a log for your provider",
		},
	},
	{
		keywords: []string{"creatinine", "bun", "kidney", "renal"},
		recs: []string{
			"* *Medical* - [HIGH] Consult a nephrologist for comprehensive kidney function evaluation",
			"* *Dietary* - [MEDIUM] Consider a kidney-friendly diet as recommended by your healthcare provider",
			"* *Monitoring* - [HIGH] Regular monitoring of kidney function tests and blood pressure",
		},
	},
	{
		keywords: []string{"alt", "ast", "liver", "hepatic", "bilirubin"},
		recs: []string{
			"* *Medical* - [HIGH] Consult a hepatologist or gastroenterologist for liver function evaluation",
			"* *Lifestyle* - [HIGH] Avoid alcohol and hepatotoxic medications; maintain a healthy weight",
			"* *Follow-up Testing* - [MEDIUM] Repeat liver function tests in 4-6 weeks to monitor improvement",
		},
	},
	{
		keywords: []string{"vitamin", "deficiency"},
		recs: []string{
			"* *Medical* - [MEDIUM] Discuss vitamin supplementation with your healthcare provider",
			"* *Dietary* - [MEDIUM] Increase intake of foods rich in the deficient vitamins",
		},
	},
}

var genericRecommendations = []string{
	"* *Medical* - [MEDIUM] Consult with your healthcare provider for interpretation of these results and a personalized management plan",
	"* *Follow-up Testing* - [MEDIUM] Schedule follow-up lab tests as recommended to monitor changes",
	"* *Lifestyle* - [MEDIUM] Maintain a healthy lifestyle with a balanced diet, regular exercise and adequate sleep",
	"* *Monitoring* - [MEDIUM] Keep regular appointments with your healthcare provider for ongoing monitoring",
}

var specialistRules = []struct {
	keywords []string
	rec      string
}{
	{[]string{"diabetes"}, "* *Specialist Consultation* - [HIGH] Consider referral to an endocrinologist for specialized diabetes care"},
	{[]string{"cardiovascular", "heart"}, "* *Specialist Consultation* - [HIGH] Consider referral to a cardiologist for cardiovascular risk assessment"},
	{[]string{"kidney", "renal"}, "* *Specialist Consultation* - [HIGH] Consider referral to a nephrologist for kidney function evaluation"},
}

// DeterministicRecommendations builds recommendation lines from lab findings
// and the risk assessment when no model-generated recommendations are
// available. Keyword groups fire once each, in declaration order; the result
// is never empty.
func DeterministicRecommendations(lab LabData, diag Diagnosis) []string {
	var out []string

	findings := make([]string, 0, len(lab.AbnormalFindings)+len(lab.CriticalValues))
	for _, f := range lab.AbnormalFindings {
		findings = append(findings, strings.ToLower(f))
	}
	for _, cv := range lab.CriticalValues {
		findings = append(findings, strings.ToLower(cv))
	}

	for _, rule := range conditionRules {
		for _, finding := range findings {
			if !containsAny(finding, rule.keywords) {
				continue
			}
			if rule.needsElevation && !mentionsElevation(finding) {
				continue
			}
			out = append(out, rule.recs...)
			break
		}
	}

	switch strings.ToLower(strings.TrimSpace(diag.RiskAssessment.OverallRisk)) {
	case "high":
		out = append(out,
			"* *Medical* - [HIGH] Schedule an immediate consultation with your primary care physician for a comprehensive evaluation",
			"* *Lifestyle* - [HIGH] Implement immediate lifestyle modifications including diet, exercise and stress management")
	case "moderate":
		out = append(out,
			"* *Medical* - [MEDIUM] Schedule a follow-up appointment with your healthcare provider within 2-4 weeks",
			"* *Lifestyle* - [MEDIUM] Begin implementing healthy lifestyle changes with gradual progression")
	}

	for _, cond := range diag.PotentialConditions {
		name := strings.ToLower(cond.Condition)
		for _, sr := range specialistRules {
			if containsAny(name, sr.keywords) {
				out = append(out, sr.rec)
				break
			}
		}
	}

	if len(out) == 0 {
		out = append(out, genericRecommendations...)
	}
	return out
}

func mentionsElevation(finding string) bool {
	return strings.Contains(finding, "high") || strings.Contains(finding, "elevated")
}
