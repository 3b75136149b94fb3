// Package harness drives a Playwright Chromium instance for landing page
// checks. A Browser is launched once per run; every check gets its own
// Session (fresh browser context plus page) so state never leaks between
// checks.
package harness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/obs"
	"github.com/kuitang/landingcheck/internal/viewport"
)

// Settings are the per-session knobs taken from config.
type Settings struct {
	BaseURL           string
	ExpectTimeout     time.Duration
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	ReducedMotion     string
}

// SettingsFrom extracts session settings from a run configuration.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		BaseURL:           cfg.BaseURL,
		ExpectTimeout:     cfg.ExpectTimeout,
		ActionTimeout:     cfg.ActionTimeout,
		NavigationTimeout: cfg.NavigationTimeout,
		SettleDelay:       cfg.SettleDelay,
		ReducedMotion:     cfg.ReducedMotion,
	}
}

// Browser owns the Playwright driver and one Chromium process.
type Browser struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	settings Settings

	mu     sync.Mutex
	closed bool
}

// Launch starts the Playwright driver and Chromium. A missing driver or
// browser install is reported as unavailable.
func Launch(cfg *config.Config) (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "playwright not available (run `go run github.com/playwright-community/playwright-go/cmd/playwright install chromium`)", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     cfg.LaunchArgs,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errs.Wrap(errs.Unavailable, "could not launch chromium", err)
	}
	obs.Pkg("harness").Info("browser_launched", "version", browser.Version(), "headless", cfg.Headless)

	return &Browser{pw: pw, browser: browser, settings: SettingsFrom(cfg)}, nil
}

// Close stops Chromium and the driver. It is safe to call more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	var firstErr error
	if err := b.browser.Close(); err != nil {
		firstErr = err
	}
	if err := b.pw.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Settings returns the session settings this browser applies.
func (b *Browser) Settings() Settings {
	return b.settings
}

// ResolveProject turns a configured project into context options using the
// Playwright device registry.
func ResolveProject(devices map[string]*playwright.DeviceDescriptor, project config.Project, settings Settings) (playwright.BrowserNewContextOptions, error) {
	device, ok := devices[project.Device]
	if !ok || device == nil {
		return playwright.BrowserNewContextOptions{}, errs.Newf(errs.InvalidArgument, "project %q: unknown device %q", project.Name, project.Device)
	}

	opts := playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(device.UserAgent),
		Viewport:          device.Viewport,
		Screen:            device.Screen,
		DeviceScaleFactor: playwright.Float(device.DeviceScaleFactor),
		IsMobile:          playwright.Bool(device.IsMobile),
		HasTouch:          playwright.Bool(device.HasTouch),
	}
	if settings.BaseURL != "" {
		opts.BaseURL = playwright.String(settings.BaseURL)
	}
	switch settings.ReducedMotion {
	case "reduce":
		opts.ReducedMotion = playwright.ReducedMotionReduce
	case "no-preference":
		opts.ReducedMotion = playwright.ReducedMotionNoPreference
	}
	return opts, nil
}

// pinViewport overrides the device viewport with vp. Touch presets also
// enable touch input so taps work under a desktop device profile; a device
// that already has touch keeps it.
func pinViewport(opts *playwright.BrowserNewContextOptions, vp *viewport.Viewport) {
	if vp == nil {
		return
	}
	opts.Viewport = &playwright.Size{Width: vp.Width, Height: vp.Height}
	if vp.Touch {
		opts.HasTouch = playwright.Bool(true)
	}
}

// NewSession opens an isolated context and page for one check. A non-nil vp
// overrides the device viewport.
func (b *Browser) NewSession(ctx context.Context, project config.Project, vp *viewport.Viewport) (*Session, error) {
	opts, err := ResolveProject(b.pw.Devices, project, b.settings)
	if err != nil {
		return nil, err
	}
	pinViewport(&opts, vp)

	bctx, err := b.browser.NewContext(opts)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, fmt.Sprintf("project %q: new browser context", project.Name), err)
	}
	bctx.SetDefaultTimeout(float64(b.settings.ActionTimeout.Milliseconds()))
	bctx.SetDefaultNavigationTimeout(float64(b.settings.NavigationTimeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, errs.Wrap(errs.Unavailable, fmt.Sprintf("project %q: new page", project.Name), err)
	}

	s := newSession(bctx, page, b.settings, project, vp)
	obs.From(ctx).Debug("session_opened", "device", project.Device)
	return s, nil
}
