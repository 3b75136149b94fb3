// Package browser provides shared test utilities for Playwright browser tests.
// All browser test files use BrowserTestEnv via SetupBrowserTestEnv(t).
package browser

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/staticserver"
	"github.com/kuitang/landingcheck/internal/viewport"
)

const (
	// Always use these timeout constants for browser tests.
	// Never introduce a larger timeout value anywhere in tests/browser.
	browserMaxTimeoutMS = 5000
	browserMaxTimeout   = 5 * time.Second
)

var browserFixtureMu sync.Mutex
var browserSharedFixture *BrowserTestEnv

// BrowserTestEnv serves the fixture landing page and owns one Chromium.
type BrowserTestEnv struct {
	Server  *httptest.Server
	BaseURL string
	Config  *config.Config
	SiteDir string

	static    *staticserver.Server
	browser   *harness.Browser
	browserMu sync.Mutex
}

// SetupBrowserTestEnv returns the shared fixture, creating it on first use.
func SetupBrowserTestEnv(t *testing.T) *BrowserTestEnv {
	t.Helper()

	browserFixtureMu.Lock()
	defer browserFixtureMu.Unlock()

	if browserSharedFixture != nil {
		return browserSharedFixture
	}
	browserSharedFixture = createBrowserTestEnv(t)
	return browserSharedFixture
}

func createBrowserTestEnv(t *testing.T) *BrowserTestEnv {
	t.Helper()

	siteDir := findSiteDir()
	static := staticserver.New(staticserver.Options{SiteDir: siteDir})
	server := httptest.NewServer(static.Handler())

	cfg := config.Default()
	cfg.BaseURL = server.URL
	cfg.SiteDir = siteDir
	cfg.WebServer.URL = server.URL
	cfg.MaxFailures = 0
	cfg.Screenshot = config.ScreenshotOff
	cfg.ExpectTimeout = browserMaxTimeout
	cfg.ActionTimeout = browserMaxTimeout
	cfg.NavigationTimeout = browserMaxTimeout
	if err := cfg.Validate(); err != nil {
		server.Close()
		t.Fatalf("invalid browser test config: %v", err)
	}

	return &BrowserTestEnv{
		Server:  server,
		BaseURL: server.URL,
		Config:  cfg,
		SiteDir: siteDir,
		static:  static,
	}
}

func cleanupSharedBrowserTestEnv() {
	browserFixtureMu.Lock()
	defer browserFixtureMu.Unlock()

	if browserSharedFixture == nil {
		return
	}
	if browserSharedFixture.browser != nil {
		_ = browserSharedFixture.browser.Close()
	}
	if browserSharedFixture.Server != nil {
		browserSharedFixture.Server.Close()
	}
	if browserSharedFixture.static != nil {
		_ = browserSharedFixture.static.Shutdown(context.Background())
	}
	browserSharedFixture = nil
}

func findSiteDir() string {
	dir := filepath.Join(repositoryRoot(), "testdata", "site")
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		panic("Cannot find fixture site at " + dir)
	}
	return dir
}

func repositoryRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("Failed to resolve repository root for test utilities")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

// =============================================================================
// Browser lifecycle helpers
// =============================================================================

// InitBrowser launches Chromium once. Skips the test if Playwright is not
// installed.
func (env *BrowserTestEnv) InitBrowser(t *testing.T) {
	t.Helper()

	env.browserMu.Lock()
	defer env.browserMu.Unlock()

	if env.browser != nil {
		return
	}
	browser, err := harness.Launch(env.Config)
	if err != nil {
		t.Skip("Playwright not available:", err)
	}
	env.browser = browser
}

// Browser returns the launched browser. InitBrowser must have been called.
func (env *BrowserTestEnv) Browser() *harness.Browser {
	return env.browser
}

// NewSession opens a fresh context and page for project, optionally at vp,
// closed automatically when the test ends.
func (env *BrowserTestEnv) NewSession(t *testing.T, project config.Project, vp *viewport.Viewport) *harness.Session {
	t.Helper()

	s, err := env.browser.NewSession(context.Background(), project, vp)
	if err != nil {
		t.Fatalf("could not create session for %s: %v", project.Name, err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// OpenLanding opens a session and loads the landing page.
func (env *BrowserTestEnv) OpenLanding(t *testing.T, project config.Project, vp *viewport.Viewport) *harness.Session {
	t.Helper()

	s := env.NewSession(t, project, vp)
	Navigate(t, s.Page(), env.BaseURL, "/")
	return s
}

// desktopProject is the default desktop project.
func desktopProject() config.Project {
	return config.DefaultProjects()[0]
}

// mobileProject is the default mobile project.
func mobileProject() config.Project {
	return config.DefaultProjects()[1]
}

// =============================================================================
// Navigation and wait helpers
// =============================================================================

// Navigate navigates to a path on the test server and waits for DOMContentLoaded.
func Navigate(t *testing.T, page playwright.Page, baseURL, path string) {
	t.Helper()

	_, err := page.Goto(baseURL+path, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(browserMaxTimeoutMS),
	})
	if err != nil {
		t.Fatalf("Failed to navigate to %s: %v", path, err)
	}
}

// WaitForSelector waits for an element to be visible and returns its locator.
func WaitForSelector(t *testing.T, page playwright.Page, selector string) playwright.Locator {
	t.Helper()

	first := page.Locator(selector).First()
	err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(browserMaxTimeoutMS),
	})
	if err != nil {
		title, _ := page.Title()
		content, _ := page.Content()
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		t.Logf("Current URL: %s", page.URL())
		t.Logf("Current title: %s", title)
		t.Logf("Content preview: %s", content)
		t.Fatalf("Failed to wait for selector %s: %v", selector, err)
	}
	return first
}

// skipIfShort skips browser tests in -short mode.
func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
}
