package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/recordstore"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/reportrender"
)

func main() {
	dbPath := flag.String("db", "", "SQLite database path")
	recordID := flag.String("record", "", "Record ID whose latest analysis to render")
	outputPath := flag.String("output", "", "Output path (.pdf, .html or .md; defaults to markdown on stdout)")
	flag.Parse()

	if *dbPath == "" || *recordID == "" {
		log.Fatal("missing required -db and -record")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := recordstore.Open(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	rec, err := store.GetRecord(ctx, *recordID)
	if err != nil {
		log.Fatalf("load record: %v", err)
	}
	ins, err := store.LatestInsight(ctx, *recordID)
	if err != nil {
		log.Fatalf("load analysis: %v", err)
	}
	result, err := ins.Result()
	if err != nil {
		log.Fatalf("decode analysis: %v", err)
	}

	markdown := reportrender.BuildAnalysisMarkdown(rec, result)

	switch {
	case *outputPath == "":
		fmt.Print(markdown)
	case strings.HasSuffix(*outputPath, ".md"):
		writeFile(*outputPath, []byte(markdown))
	case strings.HasSuffix(*outputPath, ".html"):
		doc, err := reportrender.BuildHTMLDocument(rec.Title, markdown)
		if err != nil {
			log.Fatalf("build html: %v", err)
		}
		writeFile(*outputPath, []byte(doc))
	case strings.HasSuffix(*outputPath, ".pdf"):
		doc, err := reportrender.BuildHTMLDocument(rec.Title, markdown)
		if err != nil {
			log.Fatalf("build html: %v", err)
		}
		pdf, err := reportrender.NewPDFRenderer().Render(ctx, doc)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		writeFile(*outputPath, pdf)
	default:
		log.Fatalf("unsupported output extension: %s", *outputPath)
	}
}

func writeFile(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}
	log.Printf("wrote %s (%d bytes)", path, len(data))
}
