package medanalysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Fixed text returned when salvage finds nothing usable. Each extractor
// guarantees a non-empty result so downstream composition never sees blanks.
const (
	fallbackSummaryText = "Medical report processed. The automated analysis could not be fully " +
		"structured; please review the original report with your healthcare provider."
	fallbackSimplifiedText = "Your medical report has been reviewed. Some values may need attention. " +
		"Please discuss the results with your doctor."
	unableToDetectFindings = "Unable to automatically detect abnormal findings - manual review recommended"
)

var fallbackRecommendations = []string{
	"Consult your healthcare provider to review these results in detail",
	"Schedule a follow-up appointment to discuss any abnormal values",
	"Maintain a healthy diet and regular exercise routine",
	"Keep a copy of this report for your medical records",
}

var (
	titledNameRe = regexp.MustCompile(`(?:Mr\.|Mrs\.|Ms\.)\s*([A-Za-z][A-Za-z .]*[A-Za-z])`)
	ageYearsRe   = regexp.MustCompile(`(\d{1,3})\s*Years`)
	genderRe     = regexp.MustCompile(`\b(Male|Female)\b`)
	reportDateRe = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)
	labNumberRe  = regexp.MustCompile(`(?i)Lab\s*(?:No|Number|#)\.?\s*:?\s*([A-Za-z0-9-]+)`)

	// Matches lines like "Hemoglobin : 13.2 g/dL (12.0 - 16.0)". Unit and
	// reference range are optional.
	testLineRe = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z0-9 ()/%.-]{2,48}?)\s*[:=]\s*` +
		`(\d+(?:\.\d+)?)\s*([A-Za-z%/μµ]+(?:/[A-Za-z0-9.]+)?)?\s*` +
		`(?:\(?\s*(\d+(?:\.\d+)?\s*[-–]\s*\d+(?:\.\d+)?)\s*\)?)?\s*$`)

	quotedItemRe = regexp.MustCompile(`"([^"\n]{3,})"`)
)

const maxFallbackTests = 15

// FallbackStructure builds a minimal LabData from raw report text when
// structured extraction repeatedly fails. It scans the leading lines for
// patient details and pattern-matches test result lines.
func FallbackStructure(text string) LabData {
	data := LabData{
		PatientInfo: PatientInfo{
			Name:       "Not specified",
			Age:        "Not specified",
			Gender:     "Not specified",
			ReportDate: "Not specified",
			LabNumber:  "Not specified",
		},
		AbnormalFindings: []string{unableToDetectFindings},
		CriticalValues:   []string{},
		Origin:           OriginRegexSalvaged,
	}

	lines := strings.Split(text, "\n")
	head := lines
	if len(head) > 20 {
		head = head[:20]
	}
	headText := strings.Join(head, "\n")

	if m := titledNameRe.FindStringSubmatch(headText); m != nil {
		data.PatientInfo.Name = strings.TrimSpace(m[1])
	}
	if m := ageYearsRe.FindStringSubmatch(headText); m != nil {
		data.PatientInfo.Age = m[1] + " Years"
	}
	if m := genderRe.FindStringSubmatch(headText); m != nil {
		data.PatientInfo.Gender = m[1]
	}
	if m := reportDateRe.FindStringSubmatch(headText); m != nil {
		data.PatientInfo.ReportDate = m[1]
	}
	if m := labNumberRe.FindStringSubmatch(headText); m != nil {
		data.PatientInfo.LabNumber = m[1]
	}

	var tests []TestResult
	for _, m := range testLineRe.FindAllStringSubmatch(text, -1) {
		if len(tests) >= maxFallbackTests {
			break
		}
		name := strings.TrimSpace(m[1])
		if name == "" || looksLikePatientField(name) {
			continue
		}
		tests = append(tests, TestResult{
			TestName:       name,
			Value:          m[2],
			Unit:           strings.TrimSpace(m[3]),
			ReferenceRange: strings.TrimSpace(m[4]),
			Status:         StatusUnknown,
		})
	}
	if len(tests) > 0 {
		data.TestCategories = []TestCategory{{Category: "Extracted Test Results", Tests: tests}}
	} else {
		data.TestCategories = []TestCategory{}
	}
	return data
}

func looksLikePatientField(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range []string{"age", "name", "gender", "date", "phone", "lab no", "page"} {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// ExtractSummary salvages a summary block from unparseable model output.
func ExtractSummary(text string) string {
	if s := sectionAfterHeader(text, "summary"); s != "" {
		return s
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) >= 100 {
		return firstChars(trimmed, 300) + "..."
	}
	return fallbackSummaryText
}

// ExtractSimplifiedSummary salvages the plain-language section from
// unparseable model output.
func ExtractSimplifiedSummary(text string) string {
	for _, header := range []string{"simplified summary", "in simple terms"} {
		if s := sectionAfterHeader(text, header); s != "" {
			return s
		}
	}
	return fallbackSimplifiedText
}

// ExtractRecommendations salvages quoted list items that follow a
// recommendations marker, else returns the canned list.
func ExtractRecommendations(text string) []string {
	idx := strings.Index(strings.ToLower(text), "recommendation")
	if idx >= 0 {
		tail := text[idx:]
		// Skip past the key itself so its closing quote is not paired with
		// the first item's opening quote.
		if j := strings.Index(tail, "["); j >= 0 {
			tail = tail[j:]
		}
		var recs []string
		for _, m := range quotedItemRe.FindAllStringSubmatch(tail, -1) {
			item := strings.TrimSpace(m[1])
			if item == "" || strings.Contains(item, ":") && len(item) < 15 {
				continue
			}
			recs = append(recs, item)
			if len(recs) >= 8 {
				break
			}
		}
		if len(recs) > 0 {
			return recs
		}
	}
	out := make([]string, len(fallbackRecommendations))
	copy(out, fallbackRecommendations)
	return out
}

// sectionAfterHeader returns the contiguous non-empty line block following the
// first line whose text starts with header, case-insensitively.
func sectionAfterHeader(text, header string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		cleaned := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#*- "))
		if !strings.HasPrefix(strings.ToLower(cleaned), header) {
			continue
		}
		var block []string
		if rest := strings.TrimLeft(cleaned[len(header):], ":* "); strings.TrimSpace(rest) != "" {
			block = append(block, strings.TrimSpace(rest))
		}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" {
				if len(block) > 0 {
					break
				}
				continue
			}
			if isHeaderLine(next) {
				break
			}
			block = append(block, next)
		}
		if joined := strings.TrimSpace(strings.Join(block, " ")); joined != "" {
			return joined
		}
	}
	return ""
}

func isHeaderLine(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	if strings.HasSuffix(line, ":") && len(strings.Fields(line)) <= 5 {
		return true
	}
	return false
}

func firstChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// FindingLine formats one abnormal test for key findings lists.
func FindingLine(t TestResult) string {
	line := fmt.Sprintf("%s: %s", t.TestName, t.Value)
	if t.Unit != "" {
		line += " " + t.Unit
	}
	if t.Status != "" && t.Status != StatusUnknown {
		line += fmt.Sprintf(" (%s)", t.Status)
	}
	return line
}
