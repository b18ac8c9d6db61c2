package medanalysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const maxDownloadBytes = 25 << 20

// DetectMIMEType sniffs the file signature. Content-Type headers from record
// storage are unreliable, so the bytes win.
func DetectMIMEType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return "application/pdf"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte{'I', 'I', 0x2A, 0x00}), bytes.HasPrefix(data, []byte{'M', 'M', 0x00, 0x2A}):
		return "image/tiff"
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// FileFetcher downloads record attachments over HTTP.
type FileFetcher struct {
	client *http.Client
}

func NewFileFetcher() *FileFetcher {
	return &FileFetcher{client: &http.Client{Timeout: 60 * time.Second}}
}

func (f *FileFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &InputError{Reason: fmt.Sprintf("invalid file URL: %v", err)}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetching file: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading file body: %w", err)
	}
	return data, DetectMIMEType(data), nil
}

const visionExtractionPrompt = `Extract all text content from this medical document.
Preserve the structure: patient details, test names, values, units and reference
ranges. Return the plain extracted text only, with no commentary.`

// TextExtractor turns record attachments into analyzable text, using the model
// itself for PDFs and images.
type TextExtractor struct {
	gen     Generator
	fetcher *FileFetcher
}

func NewTextExtractor(gen Generator) *TextExtractor {
	return &TextExtractor{gen: gen, fetcher: NewFileFetcher()}
}

// ExtractFromRecord resolves the analyzable text for a record: the attached
// file when present, otherwise the description. Extractions shorter than the
// minimum are treated as unusable input rather than analyzed as noise.
func (e *TextExtractor) ExtractFromRecord(ctx context.Context, rec RecordInput) (string, error) {
	if strings.TrimSpace(rec.FileURL) == "" {
		return e.fromDescription(rec)
	}

	data, mimeType, err := e.fetcher.Fetch(ctx, rec.FileURL)
	if err != nil {
		log.Printf("medanalysis extract: file fetch failed, falling back to description: %v", err)
		return e.fromDescription(rec)
	}

	switch mimeType {
	case "application/pdf", "image/jpeg", "image/png", "image/gif", "image/tiff", "image/webp":
		text, err := e.gen.Generate(ctx, []PromptPart{
			DataPart(data, mimeType),
			TextPart(visionExtractionPrompt),
		})
		if err != nil {
			return "", fmt.Errorf("extracting document text: %w", err)
		}
		text = strings.TrimSpace(text)
		if len(text) < MinExtractedChars {
			return "", &InputError{Reason: fmt.Sprintf("extracted only %d characters from document", len(text))}
		}
		return text, nil
	default:
		// Plain text or unknown binary: try it as text before giving up.
		text := strings.TrimSpace(string(data))
		if len(text) >= MinExtractedChars && isMostlyPrintable(text) {
			return text, nil
		}
		return e.fromDescription(rec)
	}
}

func (e *TextExtractor) fromDescription(rec RecordInput) (string, error) {
	text := strings.TrimSpace(rec.Description)
	if text == "" {
		text = strings.TrimSpace(rec.Title)
	}
	if len(text) < MinExtractedChars {
		return "", &InputError{Reason: "record has no analyzable content"}
	}
	return text, nil
}

func isMostlyPrintable(s string) bool {
	if s == "" {
		return false
	}
	printable := 0
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 0x20 && r != 0xFFFD) {
			printable++
		}
	}
	return printable*10 >= len([]rune(s))*9
}
