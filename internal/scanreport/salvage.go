package scanreport

import (
	"encoding/json"
	"strings"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medanalysis"
)

func decodeAnalysis(raw string) (ScanAnalysis, bool) {
	clean := medanalysis.CleanResponse(raw)
	if clean == "" {
		return ScanAnalysis{}, false
	}
	var a ScanAnalysis
	if err := json.Unmarshal([]byte(clean), &a); err != nil {
		return ScanAnalysis{}, false
	}
	if len(a.Findings) == 0 && a.Impression == "" && a.Summary == "" {
		return ScanAnalysis{}, false
	}
	return a, true
}

// SalvageSections rebuilds a reading from free-form model text by scanning for
// the conventional radiology section headers. Anything it cannot place lands
// in the summary.
func SalvageSections(raw, scanType string) ScanAnalysis {
	a := ScanAnalysis{ScanType: scanType, Salvaged: true, Urgency: UrgencyRoutine}

	sections := splitSections(raw)
	if items := sections["findings"]; len(items) > 0 {
		a.Findings = items
	}
	if items := sections["impression"]; len(items) > 0 {
		a.Impression = strings.Join(items, " ")
	}
	if items := sections["abnormalities"]; len(items) > 0 {
		a.Abnormalities = items
	}
	if items := sections["recommendations"]; len(items) > 0 {
		a.Recommendations = items
	}
	if items := sections["summary"]; len(items) > 0 {
		a.Summary = strings.Join(items, " ")
	}

	if len(a.Findings) == 0 && a.Summary == "" {
		// Nothing sectioned; keep the raw text as a summary if it reads
		// like prose.
		text := strings.TrimSpace(raw)
		if len(text) > 40 && !strings.HasPrefix(text, "{") {
			a.Summary = text
		}
	}
	return a
}

var sectionHeaders = []string{"findings", "impression", "abnormalities", "recommendations", "summary"}

func splitSections(raw string) map[string][]string {
	out := map[string][]string{}
	current := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		header, rest, ok := matchHeader(line)
		if ok {
			current = header
			if rest != "" {
				out[current] = append(out[current], rest)
			}
			continue
		}
		if current == "" {
			continue
		}
		if item := cleanItem(line); item != "" {
			out[current] = append(out[current], item)
		}
	}
	return out
}

func cleanItem(line string) string {
	line = strings.TrimLeft(line, "-*• ")
	line = strings.Trim(line, `"',[]{} `)
	return strings.TrimSpace(line)
}

// matchHeader recognizes a section header at the start of a line, in markdown
// ("## Findings"), plain ("FINDINGS:"), or broken-JSON ("\"findings\": [")
// form. A prose line that merely begins with the header word does not count;
// a delimiter must follow.
func matchHeader(line string) (string, string, bool) {
	stripped := strings.TrimLeft(line, `#*- "`)
	lower := strings.ToLower(stripped)
	for _, h := range sectionHeaders {
		if !strings.HasPrefix(lower, h) {
			continue
		}
		tail := strings.TrimLeft(stripped[len(h):], `" `)
		if tail != "" && !strings.HasPrefix(tail, ":") {
			continue
		}
		return h, cleanItem(strings.TrimLeft(tail, ": ")), true
	}
	return "", "", false
}
