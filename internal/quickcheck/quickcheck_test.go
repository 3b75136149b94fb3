package quickcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/staticserver"
)

const fixtureDir = "../../testdata/site"

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := staticserver.New(staticserver.Options{SiteDir: fixtureDir})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return ts
}

func TestLint_FixturePassesEverything(t *testing.T) {
	ts := fixtureServer(t)

	findings, err := Lint(context.Background(), ts.Client(), ts.URL)
	require.NoError(t, err)
	require.NotEmpty(t, findings)
	for _, f := range findings {
		require.Truef(t, f.OK, "%s: %s", f.Check, f.Detail)
	}
	require.Empty(t, Failed(findings))
}

func TestInspect_StrippedPageFailsContent(t *testing.T) {
	raw := `<!DOCTYPE html><html><head><title>Welcome</title></head>
<body><header><nav><a href="/">Home</a></nav></header><p>Coming soon</p><footer>bye</footer></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	require.NoError(t, err)

	byCheck := map[string]Finding{}
	for _, f := range Inspect(doc, raw) {
		byCheck[f.Check] = f
	}
	for _, id := range []string{
		"smoke/title", "smoke/hero", "smoke/cta", "smoke/email-input",
		"content/universities", "content/salary", "content/program-length", "content/day-numbers",
		"content/price", "content/guarantee", "content/cohort", "a11y/headings",
	} {
		f, ok := byCheck[id]
		require.Truef(t, ok, "missing finding %s", id)
		require.Falsef(t, f.OK, "%s should fail on a stripped page", id)
	}
	require.True(t, byCheck["smoke/nav"].OK)
	require.True(t, byCheck["smoke/footer"].OK)
	require.True(t, byCheck["a11y/img-alt"].OK, "no images is not a failure")
	require.True(t, byCheck["a11y/input-labels"].OK, "no inputs is not a failure")
}

func TestInspect_AccessibilityFindings(t *testing.T) {
	raw := `<html><body>
<img src="a.png" alt="A"><img src="b.png">
<input type="email" id="e1"><label for="e2">Email</label><input type="email" id="e2">
<label>Name <input type="text"></label>
</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	require.NoError(t, err)

	img := imgAltFinding(doc)
	require.False(t, img.OK)
	require.Contains(t, img.Detail, "b.png")

	inputs := inputLabelFinding(doc)
	require.False(t, inputs.OK)
	require.Contains(t, inputs.Detail, `id="e1"`)
	require.NotContains(t, inputs.Detail, `id="e2"`)
}

func TestChainFinding_SkipsUnsupportedSelectors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<section class="instructors">x</section>`))
	require.NoError(t, err)

	// The Playwright-only :has-text() entry must not break resolution.
	f := chainFinding(doc, "content/instructors", []string{`section:has-text("Instructor")`, ".instructors"})
	require.True(t, f.OK, f.Detail)
	require.Contains(t, f.Detail, ".instructors")
}

func TestFetch_NonOKIsNavigationError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(ts.Close)

	_, _, err := Fetch(context.Background(), ts.Client(), ts.URL)
	require.Error(t, err)
	require.Equal(t, errs.Navigation, errs.CodeOf(err))
}
