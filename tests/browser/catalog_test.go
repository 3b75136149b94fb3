package browser

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/landingcheck/internal/artifacts"
	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/report"
	"github.com/kuitang/landingcheck/internal/runner"
	"github.com/kuitang/landingcheck/internal/suite"
)

// TestBrowser_Catalog_FullRunPasses runs every check in the catalog, under
// both projects, against the fixture page.
func TestBrowser_Catalog_FullRunPasses(t *testing.T) {
	skipIfShort(t)
	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	cfg := *env.Config
	summary, err := runner.New(&cfg, env.Browser(), nil).Run(context.Background(), suite.Catalog())
	require.NoError(t, err)

	for _, r := range summary.Failed() {
		t.Errorf("[%s] %s: %s", r.Project, r.CheckID, r.Message)
	}
	counts := summary.Counts()
	require.Zero(t, counts[runner.StatusNotRun])
	require.Len(t, summary.Results, len(suite.Catalog())*len(cfg.Projects))
	require.Positive(t, counts[runner.StatusPassed])

	mdPath, htmlPath, err := report.WriteFiles(t.TempDir(), summary)
	require.NoError(t, err)
	require.FileExists(t, mdPath)
	require.FileExists(t, htmlPath)
}

// TestBrowser_Catalog_TouchChecksUnderDesktopProject runs the pinned mobile
// checks, which tap, under the desktop project with the default failure
// budget. The mobile project must still run afterwards.
func TestBrowser_Catalog_TouchChecksUnderDesktopProject(t *testing.T) {
	skipIfShort(t)
	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	cfg := *env.Config
	cfg.MaxFailures = 1
	checks := suite.Filter(suite.Catalog(), suite.Selector{Only: regexp.MustCompile(`^responsive/`)})
	require.NotEmpty(t, checks)

	summary, err := runner.New(&cfg, env.Browser(), nil).Run(context.Background(), checks)
	require.NoError(t, err)
	for _, r := range summary.Results {
		require.NotEqualf(t, runner.StatusFailed, r.Status, "[%s] %s: %s", r.Project, r.CheckID, r.Message)
		require.NotEqualf(t, runner.StatusNotRun, r.Status, "[%s] %s", r.Project, r.CheckID)
	}

	desktop := config.DefaultProjects()[0]
	var tapped bool
	for _, r := range summary.Results {
		if r.CheckID == "responsive/mobile-form" && r.Project == desktop.Name {
			tapped = true
			require.Equal(t, runner.StatusPassed, r.Status, r.Message)
		}
	}
	require.True(t, tapped, "responsive/mobile-form did not run under %s", desktop.Name)
}

// TestBrowser_Catalog_FailureScreenshot points a check at a missing element
// and verifies the runner stores a screenshot for it.
func TestBrowser_Catalog_FailureScreenshot(t *testing.T) {
	skipIfShort(t)
	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	cfg := *env.Config
	cfg.Projects = cfg.Projects[:1]
	cfg.Screenshot = config.ScreenshotOnlyOnFailure
	dir := t.TempDir()

	missing := suite.Check{
		ID:    "smoke/missing-element",
		Group: suite.GroupSmoke,
		Name:  "element that is not on the page",
	}
	missing.Run = func(ctx context.Context, s *harness.Session) error {
		if err := s.Goto("/"); err != nil {
			return err
		}
		return s.ExpectVisible(s.Locator("#does-not-exist"), "missing element")
	}

	summary, err := runner.New(&cfg, env.Browser(), artifacts.NewDirStore(dir)).Run(context.Background(), []suite.Check{missing})
	require.NoError(t, err)
	require.Equal(t, runner.StatusFailed, summary.Results[0].Status)
	require.NotEmpty(t, summary.Results[0].Artifact)

	info, err := os.Stat(summary.Results[0].Artifact)
	require.NoError(t, err)
	require.Positive(t, info.Size())
	require.Equal(t, filepath.Join(dir, summary.RunID), filepath.Dir(filepath.Dir(summary.Results[0].Artifact)))
}
