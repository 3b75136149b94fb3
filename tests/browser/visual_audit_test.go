package browser

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kuitang/landingcheck/internal/artifacts"
	"github.com/kuitang/landingcheck/internal/viewport"
)

// auditDir is where screenshots land. Set LANDING_AUDIT_DIR to keep them
// after the test run for manual review.
func auditDir(t *testing.T) string {
	if dir := os.Getenv("LANDING_AUDIT_DIR"); dir != "" {
		return dir
	}
	return t.TempDir()
}

// TestVisualAudit_EveryViewport captures the landing page at each viewport
// preset and writes a gallery page linking the images side by side.
func TestVisualAudit_EveryViewport(t *testing.T) {
	skipIfShort(t)
	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	dir := auditDir(t)
	store := artifacts.NewDirStore(dir)
	t.Logf("=== Screenshots saved to: %s ===", dir)

	var captured []viewport.Viewport
	for _, vp := range viewport.All() {
		t.Run(vp.Key, func(t *testing.T) {
			s := env.OpenLanding(t, desktopProject(), &vp)
			if err := s.WaitForPageReady(context.Background()); err != nil {
				t.Logf("Warning: page not settled at %s: %v", vp.Label(), err)
			}

			png, err := s.Screenshot()
			if err != nil {
				t.Fatalf("Failed to capture screenshot at %s: %v", vp.Label(), err)
			}
			if len(png) == 0 {
				t.Fatalf("empty screenshot at %s", vp.Label())
			}
			loc, err := store.Put(context.Background(), artifacts.Key("audit", vp.Key+".png"), png, "image/png")
			if err != nil {
				t.Fatalf("Failed to store screenshot: %v", err)
			}
			t.Logf("Captured: %s", loc)
			captured = append(captured, vp)
		})
	}

	if len(captured) == 0 {
		t.Skip("No screenshots captured")
	}
	indexPath := filepath.Join(dir, "audit", "index.html")
	if err := os.WriteFile(indexPath, []byte(galleryHTML(captured)), 0o644); err != nil {
		t.Fatalf("Failed to write gallery index: %v", err)
	}
	t.Logf("Gallery written to: %s", indexPath)
}

func galleryHTML(vps []viewport.Viewport) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Landing page across viewports</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; background: #f8f9fa; padding: 2rem; }
  .grid { display: flex; gap: 2rem; align-items: flex-start; overflow-x: auto; }
  figure { background: white; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.08); padding: 1rem; margin: 0; }
  figcaption { font-weight: 600; margin-bottom: 0.5rem; }
  img { border: 1px solid #ddd; border-radius: 4px; max-width: 480px; }
</style>
</head>
<body>
`)
	fmt.Fprintf(&b, "<h1>%d viewports</h1>\n<div class=\"grid\">\n", len(vps))
	for _, vp := range vps {
		label := html.EscapeString(vp.Label())
		fmt.Fprintf(&b, "<figure><figcaption>%s</figcaption><img src=\"%s.png\" alt=\"%s\" loading=\"lazy\"></figure>\n",
			label, vp.Key, label)
	}
	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}
