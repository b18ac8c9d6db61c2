package medanalysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectMIMEType(t *testing.T) {
	cases := []struct {
		data []byte
		want string
	}{
		{[]byte("%PDF-1.7 rest of file"), "application/pdf"},
		{[]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, "image/jpeg"},
		{[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}, "image/png"},
		{[]byte("GIF89a"), "image/gif"},
		{[]byte{'I', 'I', 0x2A, 0x00, 0x01}, "image/tiff"},
		{[]byte{'M', 'M', 0x00, 0x2A, 0x01}, "image/tiff"},
		{append([]byte("RIFF"), []byte{1, 2, 3, 4, 'W', 'E', 'B', 'P'}...), "image/webp"},
		{[]byte("plain old text"), "application/octet-stream"},
		{nil, "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := DetectMIMEType(tc.data); got != tc.want {
			t.Errorf("DetectMIMEType(%q) = %q, want %q", tc.data[:min(8, len(tc.data))], got, tc.want)
		}
	}
}

func TestFileFetcherNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	f := NewFileFetcher()
	if _, _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestFileFetcherReturnsSniffedType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("%PDF-1.4 content"))
	}))
	defer srv.Close()
	f := NewFileFetcher()
	_, mimeType, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mimeType != "application/pdf" {
		t.Fatalf("mime = %q, header must not override the signature", mimeType)
	}
}

func TestExtractFromRecordPDFUsesVision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 fake document bytes"))
	}))
	defer srv.Close()

	extracted := strings.Repeat("Hemoglobin 10.9 g/dL. ", 10)
	gen := &capturePartsGen{response: extracted}
	e := NewTextExtractor(gen)
	text, err := e.ExtractFromRecord(context.Background(), RecordInput{FileURL: srv.URL})
	if err != nil {
		t.Fatalf("ExtractFromRecord: %v", err)
	}
	if text != strings.TrimSpace(extracted) {
		t.Fatalf("text = %q", text)
	}
	if len(gen.parts) != 2 || gen.parts[0].MIMEType != "application/pdf" || gen.parts[0].Data == nil {
		t.Fatalf("document block not sent: %+v", gen.parts)
	}
}

func TestExtractFromRecordShortExtractionIsInputError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	}))
	defer srv.Close()

	gen := &capturePartsGen{response: "blurry"}
	e := NewTextExtractor(gen)
	_, err := e.ExtractFromRecord(context.Background(), RecordInput{FileURL: srv.URL})
	if err == nil || !IsInputError(err) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestExtractFromRecordPlainTextFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleReportText))
	}))
	defer srv.Close()

	e := NewTextExtractor(&capturePartsGen{})
	text, err := e.ExtractFromRecord(context.Background(), RecordInput{FileURL: srv.URL})
	if err != nil {
		t.Fatalf("ExtractFromRecord: %v", err)
	}
	if !strings.Contains(text, "Hemoglobin") {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractFromRecordDescriptionFallbackOnFetchFailure(t *testing.T) {
	e := NewTextExtractor(&capturePartsGen{})
	text, err := e.ExtractFromRecord(context.Background(), RecordInput{
		FileURL:     "http://127.0.0.1:1/unreachable",
		Description: sampleReportText,
	})
	if err != nil {
		t.Fatalf("ExtractFromRecord: %v", err)
	}
	if !strings.Contains(text, "CITY DIAGNOSTIC CENTRE") {
		t.Fatalf("text = %q", text)
	}
}

type capturePartsGen struct {
	response string
	parts    []PromptPart
}

func (g *capturePartsGen) Generate(_ context.Context, parts []PromptPart) (string, error) {
	g.parts = parts
	return g.response, nil
}
