package medanalysis

import "time"

const Disclaimer = "WARNING *AI Analysis Disclaimer*: This analysis is for informational purposes only " +
	"and should not replace professional medical advice. Always consult your healthcare provider " +
	"for personalized medical guidance."

const (
	AnalysisTypeLabReport    = "AI Medical Report Analysis"
	AnalysisTypePrescription = "Prescription Analysis"
	AnalysisTypeFallback     = "Fallback Analysis"

	// Confidence encodes which degradation tier produced the result,
	// not a statistical measure.
	ConfidenceStructured   = 0.95
	ConfidencePrescription = 0.90
	ConfidenceDegraded     = 0.85
	ConfidenceFallback     = 0.0

	MaxParseAttempts     = 3
	MaxDiagnosisAttempts = 2

	MinExtractedChars = 50
)

// Origin tags which degradation tier produced a parsed record. Downstream
// consumers treat all origins uniformly; the tag only drives origin-specific
// defaulting at the parse boundary and the confidence constant on the result.
type Origin string

const (
	OriginStructured    Origin = "structured"
	OriginRegexSalvaged Origin = "regex_salvaged"
	OriginFallback      Origin = "fallback"
)

type TestStatus string

const (
	StatusNormal     TestStatus = "normal"
	StatusHigh       TestStatus = "high"
	StatusLow        TestStatus = "low"
	StatusBorderline TestStatus = "borderline"
	StatusUnknown    TestStatus = "unknown"
)

type TestResult struct {
	TestName             string     `json:"test_name"`
	Value                string     `json:"value"`
	Unit                 string     `json:"unit,omitempty"`
	ReferenceRange       string     `json:"reference_range,omitempty"`
	Status               TestStatus `json:"status"`
	ClinicalSignificance string     `json:"clinical_significance,omitempty"`
}

type TestCategory struct {
	Category string       `json:"category"`
	Tests    []TestResult `json:"tests"`
}

type PatientInfo struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	ReportDate string `json:"report_date"`
	LabNumber  string `json:"lab_number"`
}

// LabData is the typed intermediate produced by structured extraction, regex
// salvage, or the fallback structure generator.
type LabData struct {
	PatientInfo      PatientInfo    `json:"patient_info"`
	TestCategories   []TestCategory `json:"test_categories"`
	AbnormalFindings []string       `json:"abnormal_findings"`
	CriticalValues   []string       `json:"critical_values"`

	Origin Origin `json:"-"`
}

type Probability string

const (
	ProbabilityLow      Probability = "low"
	ProbabilityModerate Probability = "moderate"
	ProbabilityHigh     Probability = "high"
)

type RiskAssessment struct {
	OverallRisk        string   `json:"overall_risk"`
	CardiovascularRisk string   `json:"cardiovascular_risk"`
	DiabetesRisk       string   `json:"diabetes_risk"`
	RiskFactors        []string `json:"risk_factors"`
}

type PotentialCondition struct {
	Condition          string      `json:"condition"`
	Probability        Probability `json:"probability"`
	SupportingEvidence []string    `json:"supporting_evidence"`
	Description        string      `json:"description"`
}

type RecommendationItem struct {
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
	Priority       string `json:"priority"`
	Rationale      string `json:"rationale"`
}

// Diagnosis is the second-stage synthesis over parsed lab data.
type Diagnosis struct {
	RiskAssessment      RiskAssessment       `json:"risk_assessment"`
	PotentialConditions []PotentialCondition `json:"potential_conditions"`
	Recommendations     []RecommendationItem `json:"recommendations"`
	FollowUpTests       []string             `json:"follow_up_tests"`
	RedFlags            []string             `json:"red_flags"`
	PositiveFindings    []string             `json:"positive_findings"`
	Summary             string               `json:"summary"`

	Origin Origin `json:"-"`
}

// AnalysisResult is the terminal output entity. Every pipeline path, including
// the terminal fallback, produces a schema-complete value. Immutable once
// returned.
type AnalysisResult struct {
	Summary           string   `json:"summary"`
	SimplifiedSummary string   `json:"simplifiedSummary"`
	KeyFindings       []string `json:"keyFindings"`
	RiskWarnings      []string `json:"riskWarnings"`
	Recommendations   []string `json:"recommendations"`
	Confidence        float64  `json:"confidence"`
	AnalysisType      string   `json:"analysisType"`
	AIDisclaimer      string   `json:"aiDisclaimer"`

	StructuredData map[string]any `json:"structuredData,omitempty"`
	DetailedReport string         `json:"detailedReport,omitempty"`
}

// RecordInput describes one health record submitted for analysis.
type RecordInput struct {
	RecordType  string
	Title       string
	Description string
	FileURL     string
}

type StageAttemptMetrics struct {
	Attempts       int
	ContentRetries int
}

type PipelineMetadata struct {
	StagesExecuted []string                       `json:"stages_executed"`
	StageAttempts  map[string]StageAttemptMetrics `json:"stage_attempts,omitempty"`
	TotalLLMCalls  int                            `json:"total_llm_calls"`
	Origin         Origin                         `json:"origin"`
	StartedAt      time.Time                      `json:"started_at"`
	CompletedAt    time.Time                      `json:"completed_at"`
}
