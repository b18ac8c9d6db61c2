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
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/prescription"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/telemetry"
)

func main() {
	inputPath := flag.String("input", "", "Path to prescription text file")
	fileURL := flag.String("file-url", "", "URL of the prescription document (PDF or image)")
	title := flag.String("title", "", "Record title")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, "analyze-prescription")
	if err != nil {
		log.Fatalf("telemetry setup: %v", err)
	}
	defer shutdown(context.Background())

	gen, err := medanalysis.NewAnthropicGeneratorFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	analyzer := prescription.NewAnalyzer(gen)

	rec := medanalysis.RecordInput{
		RecordType: "prescription",
		Title:      *title,
		FileURL:    *fileURL,
	}
	if *fileURL == "" {
		if *inputPath == "" {
			log.Fatal("missing required -input or -file-url")
		}
		b, err := os.ReadFile(*inputPath)
		if err != nil {
			log.Fatalf("read input: %v", err)
		}
		rec.Description = string(b)
	}

	result, err := analyzer.AnalyzeRecord(ctx, rec)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))
}
