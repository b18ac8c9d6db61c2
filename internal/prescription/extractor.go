// Package prescription analyzes prescription documents: it extracts the
// prescribed medicines and turns them into patient-facing guidance.
package prescription

import (
	"regexp"
	"strings"
)

// Medicine is one prescribed item as extracted from the document.
type Medicine struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

// Extraction is the structured form of a prescription document.
type Extraction struct {
	Medicines  []Medicine `json:"medicines"`
	DoctorName string     `json:"doctor_name"`
	Date       string     `json:"date"`
	Diagnosis  string     `json:"diagnosis"`
	Notes      string     `json:"notes"`
}

// Dosage-form prefixes that OCR and models often glue onto the name.
var formPrefixRe = regexp.MustCompile(`(?i)^(?:tab|tabs|tablet|cap|caps|capsule|inj|injection|syr|syrup|oint|ointment|susp|suspension)\.?\s+`)

var trailingDoseRe = regexp.MustCompile(`(?i)\s+\d+(?:\.\d+)?\s*(?:mg|mcg|g|ml|iu|units?)\b.*$`)

var nonNameRe = regexp.MustCompile(`[^A-Za-z0-9 +\-]`)

// CleanMedicineName scrubs extraction artifacts from a medicine name: dosage
// form prefixes, trailing strengths, stray punctuation. Returns "" when
// nothing name-like survives.
func CleanMedicineName(raw string) string {
	s := strings.TrimSpace(raw)
	s = formPrefixRe.ReplaceAllString(s, "")
	s = trailingDoseRe.ReplaceAllString(s, "")
	s = nonNameRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	if len(s) < 3 {
		return ""
	}
	if !strings.ContainsFunc(s, func(r rune) bool { return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' }) {
		return ""
	}
	return s
}

// Medicines commonly seen in prescriptions, scanned as a last resort when
// structured extraction yields nothing.
var commonMedicines = []string{
	"Metformin", "Glimepiride", "Insulin",
	"Atorvastatin", "Rosuvastatin",
	"Amlodipine", "Telmisartan", "Losartan", "Atenolol", "Metoprolol",
	"Pantoprazole", "Omeprazole", "Rabeprazole",
	"Levothyroxine",
	"Amoxicillin", "Azithromycin", "Ciprofloxacin", "Cefixime",
	"Paracetamol", "Ibuprofen", "Aspirin", "Diclofenac",
	"Cetirizine", "Montelukast",
	"Vitamin D3", "Calcium", "Folic Acid",
}

// ScanCommonMedicines finds well-known medicine names mentioned in raw text.
// Order follows the known list so output is deterministic.
func ScanCommonMedicines(text string) []Medicine {
	lower := strings.ToLower(text)
	var out []Medicine
	for _, name := range commonMedicines {
		if strings.Contains(lower, strings.ToLower(name)) {
			out = append(out, Medicine{Name: name})
		}
	}
	return out
}

// Normalize cleans every extracted medicine in place and drops entries whose
// name does not survive cleaning.
func (e *Extraction) Normalize() {
	kept := e.Medicines[:0]
	for _, m := range e.Medicines {
		name := CleanMedicineName(m.Name)
		if name == "" {
			continue
		}
		m.Name = name
		kept = append(kept, m)
	}
	e.Medicines = kept
}

// Names returns the cleaned medicine names in extraction order.
func (e *Extraction) Names() []string {
	out := make([]string, 0, len(e.Medicines))
	for _, m := range e.Medicines {
		out = append(out, m.Name)
	}
	return out
}
