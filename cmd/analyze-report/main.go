package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medanalysis"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/recordstore"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/telemetry"
)

func main() {
	inputPath := flag.String("input", "", "Path to report text file (use - for stdin)")
	fileURL := flag.String("file-url", "", "URL of the report document (PDF or image)")
	recordType := flag.String("record-type", "lab_report", "Record type label")
	title := flag.String("title", "", "Record title")
	patientID := flag.String("patient", "", "Patient ID; with -db the record and result are persisted")
	dbPath := flag.String("db", "", "SQLite database path (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, "analyze-report")
	if err != nil {
		log.Fatalf("telemetry setup: %v", err)
	}
	defer shutdown(context.Background())

	gen, err := medanalysis.NewAnthropicGeneratorFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	analyzer := medanalysis.NewAnalyzer(gen)

	rec := medanalysis.RecordInput{
		RecordType: *recordType,
		Title:      *title,
		FileURL:    *fileURL,
	}
	if *fileURL == "" {
		rec.Description = readInput(*inputPath)
	}

	result, meta, err := analyzer.AnalyzeRecord(ctx, rec)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}
	log.Printf("analysis complete origin=%s llm_calls=%d", meta.Origin, meta.TotalLLMCalls)

	if *dbPath != "" {
		persist(ctx, *dbPath, *patientID, rec, result, meta)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))
}

func readInput(path string) string {
	if path == "" {
		log.Fatal("missing required -input or -file-url")
	}
	if path == "-" {
		b, err := os.ReadFile("/dev/stdin")
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
		return string(b)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	return string(b)
}

func persist(ctx context.Context, dbPath, patientID string, rec medanalysis.RecordInput, result medanalysis.AnalysisResult, meta medanalysis.PipelineMetadata) {
	if patientID == "" {
		log.Fatal("missing required -patient for -db persistence")
	}
	store, err := recordstore.Open(dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	saved, err := store.CreateRecord(ctx, recordstore.HealthRecord{
		PatientID:   patientID,
		RecordType:  rec.RecordType,
		Title:       rec.Title,
		Description: rec.Description,
		FileURL:     rec.FileURL,
	})
	if err != nil {
		log.Fatalf("save record: %v", err)
	}
	ins, err := store.SaveInsight(ctx, saved.RecordID, result, meta.Origin)
	if err != nil {
		log.Fatalf("save insight: %v", err)
	}
	log.Printf("persisted record=%s insight=%s", saved.RecordID, ins.InsightID)
}
