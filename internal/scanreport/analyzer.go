// Package scanreport analyzes radiology scans (MRI, CT, X-ray, ultrasound)
// attached to health records.
package scanreport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medanalysis"
)

// Scan analysis calls carry large image payloads and run well past the usual
// request deadlines.
const analysisTimeout = 120 * time.Second

var (
	ErrInvalidAPIKey   = errors.New("scan analysis rejected: API key invalid or expired")
	ErrQuotaExceeded   = errors.New("scan analysis rejected: account quota or billing limit reached")
	ErrRateLimited     = errors.New("scan analysis rejected: rate limited, try again shortly")
	ErrUnsupportedFile = errors.New("scan analysis requires an image or PDF attachment")
)

type Urgency string

const (
	UrgencyRoutine Urgency = "routine"
	UrgencySoon    Urgency = "soon"
	UrgencyUrgent  Urgency = "urgent"
)

// ScanAnalysis is the structured reading of one scan.
type ScanAnalysis struct {
	ScanType        string   `json:"scan_type"`
	Findings        []string `json:"findings"`
	Impression      string   `json:"impression"`
	Abnormalities   []string `json:"abnormalities"`
	Urgency         Urgency  `json:"urgency"`
	RiskLevel       string   `json:"risk_level"`
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"summary"`

	Salvaged bool `json:"-"`
}

const scanPrompt = `You are reviewing a medical imaging study (%s). Describe what the image shows.

Provide a JSON response with exactly this structure:
{
  "scan_type": "detected scan type, e.g. 'MRI Brain', 'CT Chest', 'X-Ray'",
  "findings": ["observable findings, one per entry"],
  "impression": "overall radiological impression",
  "abnormalities": ["abnormal findings, empty if none"],
  "urgency": "routine/soon/urgent",
  "recommendations": ["suggested next steps"],
  "summary": "plain-language summary for the patient"
}

Only return valid JSON, no additional text.`

type Analyzer struct {
	gen     medanalysis.Generator
	fetcher *medanalysis.FileFetcher
}

func NewAnalyzer(gen medanalysis.Generator) *Analyzer {
	return &Analyzer{gen: gen, fetcher: medanalysis.NewFileFetcher()}
}

// AnalyzeRecord fetches the scan attachment and produces a reading. Account
// and rate-limit failures map to sentinel errors the API layer can translate;
// malformed model output degrades through section salvage to a fallback
// reading instead of failing.
func (a *Analyzer) AnalyzeRecord(ctx context.Context, rec medanalysis.RecordInput, scanType string) (ScanAnalysis, error) {
	if strings.TrimSpace(rec.FileURL) == "" {
		return ScanAnalysis{}, ErrUnsupportedFile
	}
	data, mimeType, err := a.fetcher.Fetch(ctx, rec.FileURL)
	if err != nil {
		return ScanAnalysis{}, fmt.Errorf("fetching scan: %w", err)
	}
	switch mimeType {
	case "application/pdf", "image/jpeg", "image/png", "image/gif", "image/tiff", "image/webp":
	default:
		return ScanAnalysis{}, ErrUnsupportedFile
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	if scanType == "" {
		scanType = "unspecified scan"
	}
	raw, err := a.gen.Generate(ctx, []medanalysis.PromptPart{
		medanalysis.DataPart(data, mimeType),
		medanalysis.TextPart(fmt.Sprintf(scanPrompt, scanType)),
	})
	if err != nil {
		return ScanAnalysis{}, mapAPIError(err)
	}

	analysis, ok := decodeAnalysis(raw)
	if !ok {
		log.Printf("scanreport: structured decode failed, salvaging sections")
		analysis = SalvageSections(raw, scanType)
	}
	normalize(&analysis, scanType)
	return analysis, nil
}

func mapAPIError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401"):
		return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	case strings.Contains(msg, "402"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	default:
		return fmt.Errorf("scan analysis failed: %w", err)
	}
}

func normalize(a *ScanAnalysis, scanType string) {
	if strings.TrimSpace(a.ScanType) == "" {
		a.ScanType = scanType
	}
	switch a.Urgency {
	case UrgencyRoutine, UrgencySoon, UrgencyUrgent:
	default:
		a.Urgency = UrgencyRoutine
	}
	if a.Findings == nil {
		a.Findings = []string{}
	}
	if a.Abnormalities == nil {
		a.Abnormalities = []string{}
	}
	if len(a.Recommendations) == 0 {
		a.Recommendations = []string{"Have a radiologist review this scan and discuss the findings with your doctor"}
	}
	if strings.TrimSpace(a.Summary) == "" {
		a.Summary = "The scan was processed. A qualified radiologist should confirm these observations."
	}
	if strings.TrimSpace(a.Impression) == "" {
		a.Impression = "No automated impression available - professional review recommended"
	}
	if strings.TrimSpace(a.RiskLevel) == "" {
		a.RiskLevel = DetermineRiskLevel(a.Findings, a.Impression)
	}
}

// Keyword tiers checked most severe first; first tier with any hit wins.
var riskKeywords = []struct {
	level    string
	keywords []string
}{
	{"critical", []string{"emergency", "urgent", "critical", "severe", "life-threatening", "acute"}},
	{"high", []string{"abnormal", "concerning", "significant", "pathological", "lesion", "mass"}},
	{"moderate", []string{"mild", "slight", "minor", "incidental", "follow-up"}},
}

// DetermineRiskLevel scans findings and the impression for severity keywords.
func DetermineRiskLevel(findings []string, impression string) string {
	text := strings.ToLower(strings.Join(findings, " ") + " " + impression)
	for _, tier := range riskKeywords {
		for _, kw := range tier.keywords {
			if strings.Contains(text, kw) {
				return tier.level
			}
		}
	}
	return "low"
}
