package prescription

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medanalysis"
)

const extractionPrompt = `Analyze this prescription and extract the prescribed medicines.

%s

Provide a JSON response with exactly this structure:
{
  "medicines": [
    {
      "name": "medicine name without dosage form prefixes",
      "dosage": "strength, e.g. '500mg'",
      "frequency": "how often, e.g. 'twice daily'",
      "duration": "for how long, e.g. '30 days'",
      "instructions": "special instructions, e.g. 'after food'"
    }
  ],
  "doctor_name": "prescribing doctor, or 'Not specified'",
  "date": "prescription date, or 'Not specified'",
  "diagnosis": "diagnosis if mentioned, or 'Not specified'",
  "notes": "other relevant notes, or ''"
}

Only return valid JSON, no additional text.`

const imageExtractionInstruction = "The prescription is attached as an image or document. Read it carefully, including handwritten text."

const maxExtractionAttempts = 2

// Analyzer turns prescription documents into structured medicine lists and
// patient guidance.
type Analyzer struct {
	exec    *medanalysis.StageExecutor
	fetcher *medanalysis.FileFetcher
}

func NewAnalyzer(gen medanalysis.Generator) *Analyzer {
	return &Analyzer{
		exec:    medanalysis.NewStageExecutor(gen, maxExtractionAttempts),
		fetcher: medanalysis.NewFileFetcher(),
	}
}

// AnalyzeRecord analyzes a prescription record, preferring the attached file.
func (a *Analyzer) AnalyzeRecord(ctx context.Context, rec medanalysis.RecordInput) (medanalysis.AnalysisResult, error) {
	if strings.TrimSpace(rec.FileURL) != "" {
		data, mimeType, err := a.fetcher.Fetch(ctx, rec.FileURL)
		if err == nil {
			switch mimeType {
			case "application/pdf", "image/jpeg", "image/png", "image/gif", "image/tiff", "image/webp":
				return a.analyzeParts(ctx, []medanalysis.PromptPart{
					medanalysis.DataPart(data, mimeType),
					medanalysis.TextPart(fmt.Sprintf(extractionPrompt, imageExtractionInstruction)),
				}, rec.Description)
			default:
				if text := strings.TrimSpace(string(data)); text != "" {
					return a.AnalyzeText(ctx, text)
				}
			}
		} else {
			log.Printf("prescription: file fetch failed, using description: %v", err)
		}
	}

	text := strings.TrimSpace(rec.Description)
	if text == "" {
		text = strings.TrimSpace(rec.Title)
	}
	if text == "" {
		return medanalysis.AnalysisResult{}, &medanalysis.InputError{Reason: "prescription record has no analyzable content"}
	}
	return a.AnalyzeText(ctx, text)
}

// AnalyzeText analyzes prescription text that is already extracted.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (medanalysis.AnalysisResult, error) {
	parts := []medanalysis.PromptPart{
		medanalysis.TextPart(fmt.Sprintf(extractionPrompt, "Prescription text:\n"+text)),
	}
	return a.analyzeParts(ctx, parts, text)
}

func (a *Analyzer) analyzeParts(ctx context.Context, parts []medanalysis.PromptPart, rawText string) (medanalysis.AnalysisResult, error) {
	var ext Extraction
	degraded := false
	_, err := a.exec.Run(ctx, "prescription_extract", parts, &ext, validateExtractionShape)
	if err != nil {
		log.Printf("prescription: extraction exhausted, scanning for known medicines: %v", err)
		degraded = true
		ext = Extraction{Medicines: ScanCommonMedicines(rawText)}
	} else {
		ext.Normalize()
		if len(ext.Medicines) == 0 {
			degraded = true
			ext.Medicines = ScanCommonMedicines(rawText)
		}
	}
	return buildResult(ext, degraded), nil
}

func validateExtractionShape(raw map[string]any) error {
	meds, ok := raw["medicines"]
	if !ok {
		return fmt.Errorf("missing required key %q", "medicines")
	}
	if _, ok := meds.([]any); !ok {
		return fmt.Errorf("medicines is not a list")
	}
	return nil
}

func buildResult(ext Extraction, degraded bool) medanalysis.AnalysisResult {
	confidence := medanalysis.ConfidencePrescription
	if degraded {
		confidence = medanalysis.ConfidenceDegraded
	}

	findings := make([]string, 0, len(ext.Medicines))
	for _, m := range ext.Medicines {
		findings = append(findings, medicineLine(m))
	}
	if len(findings) == 0 {
		findings = append(findings, "No medicines could be identified in this prescription - manual review recommended")
	}

	result := medanalysis.AnalysisResult{
		Summary:           composeSummary(ext, degraded),
		SimplifiedSummary: composeSimplified(ext),
		KeyFindings:       findings,
		RiskWarnings:      buildWarnings(ext),
		Recommendations:   medanalysis.RenderRecommendations(EvidenceBasedRecommendations(ext.Medicines)),
		Confidence:        confidence,
		AnalysisType:      medanalysis.AnalysisTypePrescription,
		AIDisclaimer:      medanalysis.Disclaimer,
	}
	if len(ext.Medicines) > 0 {
		result.StructuredData = map[string]any{"prescription": ext}
	}
	return result
}

func medicineLine(m Medicine) string {
	line := m.Name
	if m.Dosage != "" {
		line += " " + m.Dosage
	}
	if m.Frequency != "" {
		line += " - " + m.Frequency
	}
	if m.Duration != "" {
		line += " for " + m.Duration
	}
	if m.Instructions != "" {
		line += " (" + m.Instructions + ")"
	}
	return line
}

func composeSummary(ext Extraction, degraded bool) string {
	var b strings.Builder
	switch len(ext.Medicines) {
	case 0:
		b.WriteString("This prescription could not be read automatically. ")
	case 1:
		b.WriteString("This prescription contains 1 medicine. ")
	default:
		fmt.Fprintf(&b, "This prescription contains %d medicines. ", len(ext.Medicines))
	}
	if d := strings.TrimSpace(ext.DoctorName); d != "" && d != "Not specified" {
		fmt.Fprintf(&b, "Prescribed by %s. ", d)
	}
	if dx := strings.TrimSpace(ext.Diagnosis); dx != "" && dx != "Not specified" {
		fmt.Fprintf(&b, "Noted diagnosis: %s. ", dx)
	}
	if degraded {
		b.WriteString("Some details may be incomplete; verify the medicine list against the original prescription. ")
	}
	b.WriteString("Follow the dosage and timing instructions exactly as written.")
	return b.String()
}

func composeSimplified(ext Extraction) string {
	if len(ext.Medicines) == 0 {
		return "We could not read the medicines on this prescription automatically. " +
			"Please check the list with your doctor or pharmacist."
	}
	names := make([]string, 0, len(ext.Medicines))
	for _, m := range ext.Medicines {
		names = append(names, m.Name)
	}
	return fmt.Sprintf("Your doctor prescribed: %s. Take each one as directed, and ask your "+
		"pharmacist if anything is unclear.", strings.Join(names, ", "))
}

func buildWarnings(ext Extraction) []string {
	warnings := []string{}
	if len(ext.Medicines) >= multiMedicationThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"This prescription combines %d medicines; watch for unexpected side effects", len(ext.Medicines)))
	}
	for _, m := range ext.Medicines {
		if rule, ok := matchMedicineRule(m.Name); ok && ruleHasHighPriority(rule) {
			warnings = append(warnings, fmt.Sprintf("%s needs consistent use and monitoring", m.Name))
		}
	}
	return warnings
}
