package medanalysis

import (
	"regexp"
	"strconv"
	"strings"
)

// statusRule maps a test name to clinical thresholds. Rules are checked in
// order and the first name match wins, so more specific names come first.
type statusRule struct {
	nameContains []string
	nameExcludes []string
	thresholds   []threshold
}

type threshold struct {
	min          float64
	status       TestStatus
	significance string
}

var statusRules = []statusRule{
	{
		nameContains: []string{"hba1c", "glycated", "glycosylated"},
		thresholds: []threshold{
			{min: 6.5, status: StatusHigh, significance: "Suggests diabetes"},
			{min: 5.7, status: StatusBorderline, significance: "Prediabetic range"},
		},
	},
	{
		nameContains: []string{"fasting glucose", "glucose fasting", "fbs"},
		thresholds: []threshold{
			{min: 126, status: StatusHigh, significance: "Diabetic range"},
			{min: 100, status: StatusBorderline, significance: "Impaired fasting glucose"},
		},
	},
	{
		nameContains: []string{"total cholesterol", "cholesterol total", "cholesterol"},
		nameExcludes: []string{"hdl", "ldl", "vldl", "ratio"},
		thresholds: []threshold{
			{min: 240, status: StatusHigh, significance: "High cardiovascular risk"},
			{min: 200, status: StatusBorderline, significance: "Borderline high"},
		},
	},
}

var numericValueRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// EnrichTestStatus applies deterministic clinical thresholds over parsed test
// results, correcting the status and attaching significance notes for the
// marker tests it knows about. Tests without a matching rule, or with a
// non-numeric value, are left untouched.
func EnrichTestStatus(data *LabData) {
	for ci := range data.TestCategories {
		for ti := range data.TestCategories[ci].Tests {
			enrichOne(&data.TestCategories[ci].Tests[ti])
		}
	}
}

func enrichOne(t *TestResult) {
	rule, ok := matchRule(t.TestName)
	if !ok {
		return
	}
	value, ok := numericValue(t.Value)
	if !ok {
		return
	}
	for _, th := range rule.thresholds {
		if value >= th.min {
			t.Status = th.status
			t.ClinicalSignificance = th.significance
			return
		}
	}
	t.Status = StatusNormal
}

func matchRule(testName string) (statusRule, bool) {
	lower := strings.ToLower(testName)
	for _, rule := range statusRules {
		if containsAny(lower, rule.nameExcludes) {
			continue
		}
		if containsAny(lower, rule.nameContains) {
			return rule, true
		}
	}
	return statusRule{}, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func numericValue(raw string) (float64, bool) {
	m := numericValueRe.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
