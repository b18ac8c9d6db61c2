package medanalysis

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "jeeva-ai/medanalysis"

// Analyzer runs the full report pipeline: text extraction, structured parse,
// clinical diagnosis, response composition. Every tier degrades rather than
// fails; callers only see configuration and input errors.
type Analyzer struct {
	extractor *TextExtractor
	labParser *LabParser
	diagnosis *DiagnosisParser
}

func NewAnalyzer(gen Generator) *Analyzer {
	return &Analyzer{
		extractor: NewTextExtractor(gen),
		labParser: NewLabParser(gen),
		diagnosis: NewDiagnosisParser(gen),
	}
}

// AnalyzeRecord resolves the analyzable text for a record and analyzes it.
func (a *Analyzer) AnalyzeRecord(ctx context.Context, rec RecordInput) (AnalysisResult, PipelineMetadata, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "AnalyzeRecord")
	defer span.End()
	span.SetAttributes(attribute.String("record.type", rec.RecordType))

	text, err := a.extractor.ExtractFromRecord(ctx, rec)
	if err != nil {
		if IsInputError(err) {
			span.SetStatus(codes.Error, err.Error())
			return AnalysisResult{}, PipelineMetadata{}, err
		}
		log.Printf("medanalysis: extraction failed, returning fallback analysis: %v", err)
		meta := PipelineMetadata{
			StagesExecuted: []string{"extract"},
			Origin:         OriginFallback,
			StartedAt:      time.Now(),
			CompletedAt:    time.Now(),
		}
		return FallbackAnalysis(rec, "document text could not be extracted"), meta, nil
	}
	return a.AnalyzeText(ctx, text)
}

// AnalyzeText runs the parse and diagnosis stages over already-extracted text.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (AnalysisResult, PipelineMetadata, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "AnalyzeText")
	defer span.End()

	meta := PipelineMetadata{
		StageAttempts: map[string]StageAttemptMetrics{},
		StartedAt:     time.Now(),
	}

	lab, parseMetrics := a.labParser.Parse(ctx, text)
	meta.StagesExecuted = append(meta.StagesExecuted, "parse")
	meta.StageAttempts["parse"] = parseMetrics
	meta.TotalLLMCalls += parseMetrics.Attempts
	span.SetAttributes(
		attribute.Int("parse.attempts", parseMetrics.Attempts),
		attribute.String("parse.origin", string(lab.Origin)),
	)

	diag, diagMetrics := a.diagnosis.Analyze(ctx, lab)
	meta.StagesExecuted = append(meta.StagesExecuted, "diagnose")
	meta.StageAttempts["diagnose"] = diagMetrics
	meta.TotalLLMCalls += diagMetrics.Attempts
	span.SetAttributes(
		attribute.Int("diagnose.attempts", diagMetrics.Attempts),
		attribute.String("diagnose.origin", string(diag.Origin)),
	)

	meta.Origin = combinedOrigin(lab.Origin, diag.Origin)
	meta.CompletedAt = time.Now()

	result := FormatAnalysisResponse(lab, diag)
	span.SetAttributes(attribute.Float64("result.confidence", result.Confidence))
	return result, meta, nil
}

func combinedOrigin(a, b Origin) Origin {
	if a == OriginFallback || b == OriginFallback {
		return OriginFallback
	}
	if a == OriginRegexSalvaged || b == OriginRegexSalvaged {
		return OriginRegexSalvaged
	}
	return OriginStructured
}
