package harness

import (
	"errors"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"pgregory.net/rapid"

	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/viewport"
)

func TestChain_Union(t *testing.T) {
	t.Parallel()
	c := Chain{"header.hero", ".hero-section", "#hero"}
	if got := c.Union(); got != "header.hero, .hero-section, #hero" {
		t.Fatalf("Union() = %q", got)
	}
}

func TestChain_ResolvePicksFirstMatch(t *testing.T) {
	t.Parallel()
	counts := map[string]int{"a": 0, "b": 3, "c": 5}
	sel, n, err := Chain{"a", "b", "c"}.Resolve(func(s string) (int, error) { return counts[s], nil })
	if err != nil {
		t.Fatal(err)
	}
	if sel != "b" || n != 3 {
		t.Fatalf("Resolve = %q, %d; want b, 3", sel, n)
	}
}

func TestChain_ResolveNoMatch(t *testing.T) {
	t.Parallel()
	sel, n, err := Chain{"a", "b"}.Resolve(func(string) (int, error) { return 0, nil })
	if err != nil {
		t.Fatal(err)
	}
	if sel != "a, b" || n != 0 {
		t.Fatalf("Resolve = %q, %d", sel, n)
	}
}

func TestChain_ResolveStopsOnError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	calls := 0
	_, _, err := Chain{"a", "b"}.Resolve(func(string) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}

func testChain_ResolveFirstNonZero(t *rapid.T) {
	n := rapid.IntRange(1, 6).Draw(t, "n")
	chain := make(Chain, n)
	counts := make(map[string]int, n)
	for i := range chain {
		chain[i] = "#s" + strings.Repeat("x", i)
		counts[chain[i]] = rapid.IntRange(0, 3).Draw(t, "count")
	}

	sel, got, err := chain.Resolve(func(s string) (int, error) { return counts[s], nil })
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range chain {
		if counts[s] > 0 {
			if sel != s || got != counts[s] {
				t.Fatalf("Resolve = %q/%d, want first non-zero %q/%d", sel, got, s, counts[s])
			}
			return
		}
	}
	if got != 0 || sel != chain.Union() {
		t.Fatalf("no match should yield union and 0, got %q/%d", sel, got)
	}
}

func TestChain_ResolveFirstNonZero(t *testing.T) {
	rapid.Check(t, testChain_ResolveFirstNonZero)
}

func TestFilterConsoleErrors_Default(t *testing.T) {
	t.Parallel()
	in := []string{
		"Failed to load resource: the server responded with a status of 404 (Not Found)",
		"GET https://cdn.example/aos.js net::ERR_NAME_NOT_RESOLVED",
		"/favicon.ico 404",
		"Uncaught TypeError: gsap is undefined",
	}
	got := FilterConsoleErrors(in, DefaultConsoleAllowList)
	if len(got) != 1 || !strings.Contains(got[0], "TypeError") {
		t.Fatalf("FilterConsoleErrors = %v", got)
	}
}

func testFilterConsoleErrors_Properties(t *rapid.T) {
	msgs := rapid.SliceOf(rapid.StringMatching(`(net::ERR|favicon|TypeError|boom)[a-z ]{0,10}`)).Draw(t, "msgs")
	allow := rapid.SliceOf(rapid.SampledFrom([]string{"net::ERR", "favicon", "TypeError"})).Draw(t, "allow")

	got := FilterConsoleErrors(msgs, allow)
	if len(got) > len(msgs) {
		t.Fatalf("filter grew the list")
	}
	for _, m := range got {
		for _, a := range allow {
			if strings.Contains(m, a) {
				t.Fatalf("kept %q despite allow entry %q", m, a)
			}
		}
	}
	if len(FilterConsoleErrors(msgs, nil)) != len(msgs) {
		t.Fatal("empty allow list must keep every message")
	}
}

func TestFilterConsoleErrors_Properties(t *testing.T) {
	rapid.Check(t, testFilterConsoleErrors_Properties)
}

func TestResolveProject(t *testing.T) {
	t.Parallel()
	devices := map[string]*playwright.DeviceDescriptor{
		"iPhone 15 Pro Max": {
			UserAgent:         "Mozilla/5.0 (iPhone)",
			Viewport:          &playwright.Size{Width: 430, Height: 739},
			DeviceScaleFactor: 3,
			IsMobile:          true,
			HasTouch:          true,
		},
	}
	settings := Settings{BaseURL: "http://localhost:8888", ReducedMotion: "reduce"}

	opts, err := ResolveProject(devices, config.Project{Name: "Mobile Chrome", Device: "iPhone 15 Pro Max"}, settings)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Viewport == nil || opts.Viewport.Width != 430 {
		t.Fatalf("viewport = %+v", opts.Viewport)
	}
	if opts.IsMobile == nil || !*opts.IsMobile || opts.HasTouch == nil || !*opts.HasTouch {
		t.Fatal("mobile/touch flags not carried over")
	}
	if opts.BaseURL == nil || *opts.BaseURL != settings.BaseURL {
		t.Fatalf("BaseURL = %v", opts.BaseURL)
	}
	if opts.ReducedMotion == nil || *opts.ReducedMotion != *playwright.ReducedMotionReduce {
		t.Fatal("reduced motion not applied")
	}

	_, err = ResolveProject(devices, config.Project{Name: "x", Device: "Nokia 3310"}, settings)
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("unknown device err = %v", err)
	}
}

func TestPinViewport_TouchPresetOnDesktopDevice(t *testing.T) {
	t.Parallel()
	devices := map[string]*playwright.DeviceDescriptor{
		"Desktop Chrome": {
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64)",
			Viewport:          &playwright.Size{Width: 1280, Height: 720},
			DeviceScaleFactor: 1,
		},
		"iPhone 15 Pro Max": {
			Viewport: &playwright.Size{Width: 430, Height: 739},
			IsMobile: true,
			HasTouch: true,
		},
	}
	desktop := config.DefaultProjects()[0]

	opts, err := ResolveProject(devices, desktop, Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.HasTouch == nil || *opts.HasTouch {
		t.Fatal("desktop device should start without touch")
	}

	vp := viewport.MobileLarge
	pinViewport(&opts, &vp)
	if opts.Viewport.Width != 430 || opts.Viewport.Height != 932 {
		t.Fatalf("viewport = %+v", opts.Viewport)
	}
	if opts.HasTouch == nil || !*opts.HasTouch {
		t.Fatal("mobile preset must enable touch so Tap works")
	}

	opts, _ = ResolveProject(devices, desktop, Settings{})
	pinViewport(&opts, &viewport.Desktop)
	if *opts.HasTouch {
		t.Fatal("desktop preset must not enable touch")
	}

	mobile, err := ResolveProject(devices, config.DefaultProjects()[1], Settings{})
	if err != nil {
		t.Fatal(err)
	}
	pinViewport(&mobile, &viewport.Desktop)
	if !*mobile.HasTouch {
		t.Fatal("touch device must keep touch under a desktop preset")
	}

	opts, _ = ResolveProject(devices, desktop, Settings{})
	pinViewport(&opts, nil)
	if opts.Viewport.Width != 1280 {
		t.Fatalf("nil viewport changed the device viewport: %+v", opts.Viewport)
	}
}

func TestAsFloatAsBool(t *testing.T) {
	t.Parallel()
	if asFloat(3) != 3 || asFloat(int64(4)) != 4 || asFloat(2.5) != 2.5 || asFloat("x") != 0 {
		t.Fatal("asFloat coercion mismatch")
	}
	if !asBool(true) || asBool("true") || asBool(nil) {
		t.Fatal("asBool coercion mismatch")
	}
}

func TestZeroSession_CloseAndScreenshot(t *testing.T) {
	t.Parallel()
	var s *Session
	if err := s.Close(); err != nil {
		t.Fatalf("nil Close = %v", err)
	}
	if _, err := (&Session{}).Screenshot(); errs.CodeOf(err) != errs.Unavailable {
		t.Fatalf("zero Screenshot err = %v", err)
	}
}
