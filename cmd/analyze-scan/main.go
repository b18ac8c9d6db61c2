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
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/scanreport"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/telemetry"
)

func main() {
	fileURL := flag.String("file-url", "", "URL of the scan image or PDF")
	scanType := flag.String("scan-type", "", "Scan type hint, e.g. 'MRI Brain', 'CT Chest'")
	patientID := flag.String("patient", "", "Patient ID; with -db the record and result are persisted")
	dbPath := flag.String("db", "", "SQLite database path (optional)")
	flag.Parse()

	if *fileURL == "" {
		log.Fatal("missing required -file-url")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, "analyze-scan")
	if err != nil {
		log.Fatalf("telemetry setup: %v", err)
	}
	defer shutdown(context.Background())

	gen, err := medanalysis.NewAnthropicGeneratorFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	analyzer := scanreport.NewAnalyzer(gen)

	analysis, err := analyzer.AnalyzeRecord(ctx, medanalysis.RecordInput{FileURL: *fileURL}, *scanType)
	if err != nil {
		log.Fatalf("analyze scan: %v", err)
	}

	if *dbPath != "" {
		if *patientID == "" {
			log.Fatal("missing required -patient for -db persistence")
		}
		store, err := recordstore.Open(*dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer store.Close()

		rec, err := store.CreateRecord(ctx, recordstore.HealthRecord{
			PatientID:  *patientID,
			RecordType: "imaging_scan",
			Title:      analysis.ScanType,
			FileURL:    *fileURL,
		})
		if err != nil {
			log.Fatalf("save record: %v", err)
		}
		id, err := store.SaveScanAnalysis(ctx, rec.RecordID, analysis)
		if err != nil {
			log.Fatalf("save analysis: %v", err)
		}
		log.Printf("persisted record=%s analysis=%s", rec.RecordID, id)
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		log.Fatalf("encode analysis: %v", err)
	}
	fmt.Println(string(out))
}
