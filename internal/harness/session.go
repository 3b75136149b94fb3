package harness

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/urlutil"
	"github.com/kuitang/landingcheck/internal/viewport"
)

// Session is one isolated browser context and page. It is not safe for
// concurrent use; checks run serially.
type Session struct {
	bctx     playwright.BrowserContext
	page     playwright.Page
	settings Settings
	project  config.Project
	viewport *viewport.Viewport
	expect   playwright.PlaywrightAssertions

	consoleMu     sync.Mutex
	consoleErrors []string
}

func newSession(bctx playwright.BrowserContext, page playwright.Page, settings Settings, project config.Project, vp *viewport.Viewport) *Session {
	s := &Session{
		bctx:     bctx,
		page:     page,
		settings: settings,
		project:  project,
		viewport: vp,
		expect:   playwright.NewPlaywrightAssertions(float64(settings.ExpectTimeout.Milliseconds())),
	}
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		if msg.Type() != "error" {
			return
		}
		s.consoleMu.Lock()
		s.consoleErrors = append(s.consoleErrors, msg.Text())
		s.consoleMu.Unlock()
	})
	return s
}

// Page exposes the underlying page for checks that need raw Playwright access.
func (s *Session) Page() playwright.Page { return s.page }

// Project is the device profile this session emulates.
func (s *Session) Project() config.Project { return s.project }

// Viewport returns the pinned viewport, or nil when the device default applies.
func (s *Session) Viewport() *viewport.Viewport { return s.viewport }

// ViewportWidth is the effective layout width in CSS pixels.
func (s *Session) ViewportWidth() int {
	if s.viewport != nil {
		return s.viewport.Width
	}
	if size := s.page.ViewportSize(); size != nil {
		return size.Width
	}
	return 0
}

// Settings returns the timeouts this session was opened with.
func (s *Session) Settings() Settings { return s.settings }

// Goto navigates to path relative to the base URL and waits for DOMContentLoaded.
func (s *Session) Goto(path string) error {
	url := urlutil.BuildAbsolute(s.settings.BaseURL, "/"+strings.TrimLeft(path, "/"))
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.settings.NavigationTimeout.Milliseconds())),
	})
	if err != nil {
		return errs.Wrap(errs.Navigation, "navigate to "+url, err)
	}
	return nil
}

// WaitForPageReady waits for DOMContentLoaded, then pauses for the settle
// delay so entrance animations and deferred scripts finish.
func (s *Session) WaitForPageReady(ctx context.Context) error {
	if err := s.WaitForDOMContentLoaded(); err != nil {
		return err
	}
	return s.Pause(ctx, s.settings.SettleDelay)
}

// WaitForDOMContentLoaded blocks until the current document has parsed.
func (s *Session) WaitForDOMContentLoaded() error {
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	})
	if err != nil {
		return wrapTimeout("wait for DOMContentLoaded", err)
	}
	return nil
}

// Pause sleeps for d unless ctx ends first.
func (s *Session) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errs.Wrap(errs.Timeout, "pause interrupted", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// SetViewport resizes the page.
func (s *Session) SetViewport(vp viewport.Viewport) error {
	if err := s.page.SetViewportSize(vp.Width, vp.Height); err != nil {
		return errs.Wrap(errs.Internal, "set viewport "+vp.Size(), err)
	}
	s.viewport = &vp
	return nil
}

// Locator returns a locator for a raw selector.
func (s *Session) Locator(selector string) playwright.Locator {
	return s.page.Locator(selector)
}

// Locate resolves a fallback chain to the first alternative that matches and
// returns its first element plus the match count. A count of 0 means no
// alternative matched.
func (s *Session) Locate(chain Chain) (playwright.Locator, int, error) {
	sel, n, err := chain.Resolve(s.Count)
	if err != nil {
		return nil, 0, err
	}
	return s.page.Locator(sel).First(), n, nil
}

// Count returns how many elements match selector.
func (s *Session) Count(selector string) (int, error) {
	n, err := s.page.Locator(selector).Count()
	if err != nil {
		return 0, errs.Wrap(errs.Internal, "count "+selector, err)
	}
	return n, nil
}

// Content returns the serialized DOM.
func (s *Session) Content() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", errs.Wrap(errs.Internal, "read page content", err)
	}
	return html, nil
}

// Title returns document.title.
func (s *Session) Title() (string, error) {
	title, err := s.page.Title()
	if err != nil {
		return "", errs.Wrap(errs.Internal, "read title", err)
	}
	return title, nil
}

// Eval runs a page expression and returns the raw result.
func (s *Session) Eval(js string, args ...any) (any, error) {
	v, err := s.page.Evaluate(js, args...)
	if err != nil {
		return nil, wrapTimeout("evaluate", err)
	}
	return v, nil
}

// EvalBool runs a page expression and coerces the result to bool.
func (s *Session) EvalBool(js string, args ...any) (bool, error) {
	v, err := s.Eval(js, args...)
	if err != nil {
		return false, err
	}
	return asBool(v), nil
}

// EvalFloat runs a page expression and coerces the result to float64.
func (s *Session) EvalFloat(js string, args ...any) (float64, error) {
	v, err := s.Eval(js, args...)
	if err != nil {
		return 0, err
	}
	return asFloat(v), nil
}

// ComputedStyle reads one computed CSS property of the located element.
func (s *Session) ComputedStyle(loc playwright.Locator, prop string) (string, error) {
	v, err := loc.Evaluate(`(el, prop) => getComputedStyle(el).getPropertyValue(prop)`, prop)
	if err != nil {
		return "", wrapTimeout("computed style "+prop, err)
	}
	str, _ := v.(string)
	return strings.TrimSpace(str), nil
}

// FontSize returns the computed font-size in pixels.
func (s *Session) FontSize(loc playwright.Locator) (float64, error) {
	raw, err := s.ComputedStyle(loc, "font-size")
	if err != nil {
		return 0, err
	}
	px, err := strconv.ParseFloat(strings.TrimSuffix(raw, "px"), 64)
	if err != nil {
		return 0, errs.Newf(errs.Internal, "unparseable font-size %q", raw)
	}
	return px, nil
}

// BoundingBox returns the element's box. A hidden element has no box and
// fails the assertion.
func (s *Session) BoundingBox(loc playwright.Locator) (*playwright.Rect, error) {
	box, err := loc.BoundingBox()
	if err != nil {
		return nil, wrapTimeout("bounding box", err)
	}
	if box == nil {
		return nil, errs.Assertf("element has no bounding box (not rendered)")
	}
	return box, nil
}

// IsVisible reports whether the located element is currently visible.
func (s *Session) IsVisible(loc playwright.Locator) (bool, error) {
	visible, err := loc.IsVisible()
	if err != nil {
		return false, wrapTimeout("visibility", err)
	}
	return visible, nil
}

// PressKey sends one key press to the focused element.
func (s *Session) PressKey(key string) error {
	if err := s.page.Keyboard().Press(key); err != nil {
		return wrapTimeout("press "+key, err)
	}
	return nil
}

// FocusedTag returns the lowercase tag name of document.activeElement.
func (s *Session) FocusedTag() (string, error) {
	v, err := s.Eval(`() => document.activeElement ? document.activeElement.tagName : ''`)
	if err != nil {
		return "", err
	}
	tag, _ := v.(string)
	return strings.ToLower(tag), nil
}

// ScrollY returns window.scrollY.
func (s *Session) ScrollY() (float64, error) {
	return s.EvalFloat(`() => window.scrollY`)
}

// ConsoleErrors returns every console message of type error seen so far.
func (s *Session) ConsoleErrors() []string {
	s.consoleMu.Lock()
	defer s.consoleMu.Unlock()
	out := make([]string, len(s.consoleErrors))
	copy(out, s.consoleErrors)
	return out
}

// Screenshot captures the full page as PNG.
func (s *Session) Screenshot() ([]byte, error) {
	if s == nil || s.page == nil {
		return nil, errs.New(errs.Unavailable, "no page to capture")
	}
	png, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "screenshot", err)
	}
	return png, nil
}

// Close closes the page's browser context. A nil or zero Session is a no-op.
func (s *Session) Close() error {
	if s == nil || s.bctx == nil {
		return nil
	}
	return s.bctx.Close()
}

// Describe returns a short page identification used in failure messages.
func (s *Session) Describe() string {
	title, _ := s.page.Title()
	return fmt.Sprintf("url=%s title=%q", s.page.URL(), title)
}

func wrapTimeout(what string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return errs.Wrap(errs.Timeout, what, err)
	}
	return errs.Wrap(errs.Internal, what, err)
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	case uint32:
		return float64(n)
	default:
		return 0
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
