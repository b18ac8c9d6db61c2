// Package reportrender turns analysis results into shareable documents:
// markdown, standalone HTML, and print-quality PDF via headless Chromium.
package reportrender

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medanalysis"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/recordstore"
)

// BuildAnalysisMarkdown renders one analysis as a markdown report.
func BuildAnalysisMarkdown(rec recordstore.HealthRecord, res medanalysis.AnalysisResult) string {
	var b strings.Builder

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = "Health Record Analysis"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Analysis type:** %s  \n", res.AnalysisType)
	fmt.Fprintf(&b, "**Confidence:** %.0f%%  \n", res.Confidence*100)
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "**Record date:** %s  \n", rec.CreatedAt.Format("January 2, 2006"))
	}
	b.WriteString("\n## Summary\n\n")
	b.WriteString(res.Summary)
	b.WriteString("\n\n## In Simple Terms\n\n")
	b.WriteString(res.SimplifiedSummary)

	if len(res.KeyFindings) > 0 {
		b.WriteString("\n\n## Key Findings\n\n")
		for _, f := range res.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(res.RiskWarnings) > 0 {
		b.WriteString("\n## Risk Warnings\n\n")
		for _, w := range res.RiskWarnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	if len(res.Recommendations) > 0 {
		b.WriteString("\n## Recommendations\n\n")
		for _, r := range res.Recommendations {
			// Recommendation lines already carry markdown list markers.
			if strings.HasPrefix(r, "* ") {
				fmt.Fprintf(&b, "%s\n", r)
			} else {
				fmt.Fprintf(&b, "* %s\n", r)
			}
		}
	}
	b.WriteString("\n---\n\n> " + res.AIDisclaimer + "\n")
	return b.String()
}

// MarkdownToHTML converts markdown to an HTML fragment with GFM tables and
// lists enabled.
func MarkdownToHTML(markdown string) (string, error) {
	var out strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &out); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return out.String(), nil
}

const reportCSS = `
body{font-family:Georgia,'Times New Roman',serif;color:#1c1917;background:#fff;padding:0.6rem;}
.report-wrap{max-width:900px;margin:0 auto;padding:0 0.65rem;border-left:3px solid #0f766e;border-right:3px solid #0f766e;}
h1{font-size:1.6rem;border-bottom:2px solid #0f766e;padding-bottom:0.3rem;}
h2{font-size:1.15rem;color:#134e4a;margin-top:1.4rem;}
blockquote{background:#fef9c3;border-left:4px solid #ca8a04;margin:1rem 0;padding:0.5rem 0.8rem;font-size:0.85rem;color:#713f12;}
table{width:100%;border-collapse:collapse;font-size:0.85rem;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
li{margin:0.2rem 0;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .report-wrap{max-width:none;} }
`

// BuildHTMLDocument wraps a markdown report in a complete printable HTML page.
func BuildHTMLDocument(docTitle, markdown string) (string, error) {
	contentHTML, err := MarkdownToHTML(markdown)
	if err != nil {
		return "", err
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>" +
		html.EscapeString(docTitle) + "</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report-wrap'>" + contentHTML + "</div>" +
		"</body></html>", nil
}

// PDFRenderer prints HTML documents to PDF through headless Chromium.
type PDFRenderer struct {
	chromePath string
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{chromePath: detectChromePath()}
}

func (r *PDFRenderer) Render(ctx context.Context, htmlDoc string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
