package prescription

import (
	"fmt"
	"strings"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medanalysis"
)

// medicineRule maps medicine name keywords to guidance for that drug class.
// First match per medicine wins.
type medicineRule struct {
	keywords []string
	items    []medanalysis.RecommendationItem
}

var medicineRules = []medicineRule{
	{
		keywords: []string{"metformin", "glimepiride", "gliclazide", "insulin", "sitagliptin"},
		items: []medanalysis.RecommendationItem{{
			Category:       "medical",
			Recommendation: "Monitor blood glucose levels regularly",
			Priority:       "high",
			Rationale:      "This medication manages blood sugar and requires regular monitoring",
		}},
	},
	{
		keywords: []string{"atorvastatin", "rosuvastatin", "simvastatin", "statin"},
		items: []medanalysis.RecommendationItem{{
			Category:       "lifestyle",
			Recommendation: "Follow a low-fat diet and repeat a lipid profile periodically",
			Priority:       "medium",
			Rationale:      "Statins work best alongside dietary changes and need periodic monitoring",
		}},
	},
	{
		keywords: []string{"amlodipine", "telmisartan", "losartan", "atenolol", "metoprolol", "ramipril"},
		items: []medanalysis.RecommendationItem{{
			Category:       "medical",
			Recommendation: "Monitor blood pressure regularly and keep a reading log",
			Priority:       "high",
			Rationale:      "Blood pressure medication doses are adjusted based on home readings",
		}},
	},
	{
		keywords: []string{"aspirin", "warfarin", "clopidogrel", "anticoagulant", "blood thinner"},
		items: []medanalysis.RecommendationItem{
			{
				Category:       "safety",
				Recommendation: "Avoid activities that may cause bleeding and report any unusual bleeding or bruising",
				Priority:       "high",
				Rationale:      "Blood thinners raise the risk of serious bleeding from minor injuries",
			},
			{
				Category:       "medical",
				Recommendation: "Get regular blood tests to monitor clotting function",
				Priority:       "high",
				Rationale:      "Clotting tests keep the anticoagulant dose in the safe range",
			},
			{
				Category:       "safety",
				Recommendation: "Tell every doctor and dentist about this medicine before any procedure",
				Priority:       "high",
				Rationale:      "Procedures may need the anticoagulant paused to avoid excessive bleeding",
			},
		},
	},
	{
		keywords: []string{"pantoprazole", "omeprazole", "rabeprazole", "esomeprazole"},
		items: []medanalysis.RecommendationItem{{
			Category:       "dietary",
			Recommendation: "Take this medicine before meals and avoid very spicy or acidic food",
			Priority:       "medium",
			Rationale:      "Acid reducers are most effective on an empty stomach",
		}},
	},
	{
		keywords: []string{"levothyroxine", "thyroxine"},
		items: []medanalysis.RecommendationItem{{
			Category:       "medical",
			Recommendation: "Take on an empty stomach in the morning and test TSH periodically",
			Priority:       "medium",
			Rationale:      "Food interferes with thyroid hormone absorption",
		}},
	},
	{
		keywords: []string{"amoxicillin", "azithromycin", "ciprofloxacin", "cefixime", "doxycycline"},
		items: []medanalysis.RecommendationItem{{
			Category:       "medical",
			Recommendation: "Complete the full course of antibiotics even if you feel better",
			Priority:       "high",
			Rationale:      "Stopping antibiotics early can cause resistant infections",
		}},
	},
	{
		keywords: []string{"ibuprofen", "diclofenac", "naproxen"},
		items: []medanalysis.RecommendationItem{{
			Category:       "dietary",
			Recommendation: "Take painkillers with food to protect your stomach",
			Priority:       "medium",
			Rationale:      "Anti-inflammatory painkillers can irritate the stomach lining",
		}},
	},
	{
		keywords: []string{"vitamin", "calcium", "iron", "folic"},
		items: []medanalysis.RecommendationItem{{
			Category:       "dietary",
			Recommendation: "Take supplements consistently at the same time each day",
			Priority:       "low",
			Rationale:      "Consistent timing improves supplement absorption and adherence",
		}},
	},
}

var multiMedicationAdvice = []medanalysis.RecommendationItem{
	{
		Category:       "medical",
		Recommendation: "Ask your pharmacist to check for interactions between your medicines",
		Priority:       "high",
		Rationale:      "Taking several medicines together increases the chance of interactions",
	},
	{
		Category:       "lifestyle",
		Recommendation: "Use a pill organizer or reminders to keep doses on schedule",
		Priority:       "medium",
		Rationale:      "Missed or doubled doses are common with multi-drug regimens",
	},
}

const multiMedicationThreshold = 2

// EvidenceBasedRecommendations derives guidance from the extracted medicines
// using the keyword rules, adding regimen-level advice for multi-drug
// prescriptions. Medicines that match no rule get a generic monitoring set.
// Always returns at least one item.
func EvidenceBasedRecommendations(medicines []Medicine) []medanalysis.RecommendationItem {
	var items []medanalysis.RecommendationItem
	seen := map[string]bool{}
	for _, med := range medicines {
		rule, ok := matchMedicineRule(med.Name)
		advice := rule.items
		if !ok {
			advice = genericMedicineAdvice(med.Name)
		}
		for _, item := range advice {
			if seen[item.Recommendation] {
				continue
			}
			seen[item.Recommendation] = true
			items = append(items, item)
		}
	}
	if len(medicines) >= multiMedicationThreshold {
		items = append(items, multiMedicationAdvice...)
	}
	items = append(items, medanalysis.RecommendationItem{
		Category:       "medical",
		Recommendation: "Take all medicines exactly as prescribed and report side effects to your doctor",
		Priority:       "medium",
		Rationale:      "Deviating from the prescription reduces treatment effectiveness",
	})
	return items
}

// genericMedicineAdvice covers medicines outside the keyword table.
func genericMedicineAdvice(name string) []medanalysis.RecommendationItem {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "this medicine"
	}
	return []medanalysis.RecommendationItem{
		{
			Category:       "safety",
			Recommendation: fmt.Sprintf("Follow the prescribed dosage and schedule for %s exactly as directed", name),
			Priority:       "medium",
			Rationale:      "Correct dosing keeps the medicine safe and effective",
		},
		{
			Category:       "medical",
			Recommendation: fmt.Sprintf("Watch for unusual side effects while taking %s and report them to your doctor", name),
			Priority:       "medium",
			Rationale:      "Early reporting lets your doctor adjust treatment before problems worsen",
		},
		{
			Category:       "follow-up",
			Recommendation: fmt.Sprintf("Keep regular follow-up appointments to review your response to %s", name),
			Priority:       "medium",
			Rationale:      "Follow-up visits confirm the medicine is working as intended",
		},
	}
}

func ruleHasHighPriority(rule medicineRule) bool {
	for _, item := range rule.items {
		if item.Priority == "high" {
			return true
		}
	}
	return false
}

func matchMedicineRule(name string) (medicineRule, bool) {
	lower := strings.ToLower(name)
	for _, rule := range medicineRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule, true
			}
		}
	}
	return medicineRule{}, false
}
