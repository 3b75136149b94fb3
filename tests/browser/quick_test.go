// Package browser contains quick HTTP-based checks of the fixture site.
// These tests don't require Playwright and run quickly.
package browser

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/kuitang/landingcheck/internal/quickcheck"
	"github.com/kuitang/landingcheck/internal/staticserver"
)

// TestQuick_FixtureServedWithoutCaching verifies the landing page and the
// health endpoint are served, uncached.
func TestQuick_FixtureServedWithoutCaching(t *testing.T) {
	env := SetupBrowserTestEnv(t)

	resp, err := http.Get(env.BaseURL + "/")
	if err != nil {
		t.Fatalf("Failed to get landing page: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	bodyStr := string(body)

	checks := []struct {
		name     string
		expected string
	}{
		{"title", "<title>AdaVa University"},
		{"hero", `class="hero"`},
		{"cta", `class="cta-btn"`},
		{"email input", `type="email"`},
		{"aos markup", "data-aos"},
		{"tilt markup", "data-tilt"},
		{"faq", `<details class="faq-item">`},
	}
	for _, check := range checks {
		if !strings.Contains(bodyStr, check.expected) {
			t.Errorf("%s not found in response", check.name)
		}
	}

	health, err := http.Get(env.BaseURL + staticserver.HealthPath)
	if err != nil {
		t.Fatalf("Failed to get health endpoint: %v", err)
	}
	defer health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", health.StatusCode)
	}
}

// TestQuick_LintFixture runs the offline linter against the served fixture.
func TestQuick_LintFixture(t *testing.T) {
	env := SetupBrowserTestEnv(t)

	findings, err := quickcheck.Lint(context.Background(), env.Server.Client(), env.BaseURL)
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	for _, f := range quickcheck.Failed(findings) {
		t.Errorf("%s: %s", f.Check, f.Detail)
	}
}
