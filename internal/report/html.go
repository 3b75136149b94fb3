package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kuitang/landingcheck/internal/runner"
)

// File names written by WriteFiles.
const (
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
)

// RenderHTML converts report Markdown into a sanitized HTML fragment.
func RenderHTML(md []byte) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(md)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	rendered := markdown.Render(doc, renderer)

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("pre", "code", "details", "summary")
	policy.AllowAttrs("class").OnElements("code", "pre")
	return policy.SanitizeBytes(rendered)
}

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:72rem;margin:2rem auto;padding:0 1rem}` +
	`table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25rem .5rem}` +
	`pre{background:#f6f8fa;padding:.75rem;overflow-x:auto}`

// renderPage wraps a sanitized fragment in a standalone document.
func renderPage(title string, fragment []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>%s</style>\n</head>\n<body>\n",
		html.EscapeString(title), pageStyle)
	buf.Write(fragment)
	buf.WriteString("\n</body>\n</html>\n")
	return buf.Bytes()
}

// WriteFiles writes report.md and report.html into dir and returns their
// paths.
func WriteFiles(dir string, summary *runner.Summary) (mdPath, htmlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("report: create %s: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, summary); err != nil {
		return "", "", fmt.Errorf("report: render markdown: %w", err)
	}

	mdPath = filepath.Join(dir, MarkdownFile)
	if err := os.WriteFile(mdPath, buf.Bytes(), 0o644); err != nil { //nolint:gosec // reports are meant to be shared
		return "", "", fmt.Errorf("report: write %s: %w", mdPath, err)
	}

	htmlPath = filepath.Join(dir, HTMLFile)
	page := renderPage("landingcheck "+summary.RunID, RenderHTML(buf.Bytes()))
	if err := os.WriteFile(htmlPath, page, 0o644); err != nil { //nolint:gosec // reports are meant to be shared
		return "", "", fmt.Errorf("report: write %s: %w", htmlPath, err)
	}
	return mdPath, htmlPath, nil
}
