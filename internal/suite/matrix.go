package suite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/viewport"
)

const (
	minCTAWidth        = 40
	minCTAHeight       = 36
	minInputHeight     = 40
	minHeadingFontPx   = 20
	minBodyFontPx      = 14
	sectionOverflowPx  = 10
	sectionSettleDelay = 300 * time.Millisecond
	aosExtraDelay      = time.Second
)

func matrixChecks() []Check {
	var checks []Check
	for _, vp := range viewport.All() {
		checks = append(checks, matrixHero(vp), matrixCTA(vp))
	}
	checks = append(checks, matrixDesktopNav(), matrixMobileNav())
	for _, vp := range viewport.All() {
		checks = append(checks, matrixEmailInput(vp))
	}
	for _, section := range Sections {
		checks = append(checks, matrixSection(section, viewport.MobileLarge, true), matrixSection(section, viewport.Desktop, false))
	}
	checks = append(checks,
		matrixFontSize("h1-font", "headings are readable on mobile", "h1", minHeadingFontPx),
		matrixFontSize("body-font", "body text is readable on mobile", "p", minBodyFontPx),
		Check{
			ID: "matrix/cursor-hidden", Group: GroupMatrix, Tags: []string{TagMobile},
			Name:     "custom cursor hidden on touch devices (mobile)",
			Viewport: pin(viewport.MobileLarge),
			Absence:  AllowAbsent,
			Run:      expectCursorHidden,
		},
		matrixAOSDesktop(),
		matrixCTATouchTargets(),
		matrixInputTouchTargets(),
	)
	return checks
}

func matrixHero(vp viewport.Viewport) Check {
	return Check{
		ID: "matrix/hero/" + vp.Key, Group: GroupMatrix,
		Name:     "hero visible on " + vp.Label(),
		Viewport: pin(vp),
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			return expectFirstVisible(s, HeroMatrixChain.Union(), "hero")
		},
	}
}

func matrixCTA(vp viewport.Viewport) Check {
	return Check{
		ID: "matrix/cta/" + vp.Key, Group: GroupMatrix,
		Name:     "CTA button clickable on " + vp.Name,
		Viewport: pin(vp),
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			cta := s.Locator(CTAMatrixChain.Union()).First()
			if err := s.ExpectVisible(cta, "CTA"); err != nil {
				return err
			}
			box, err := s.BoundingBox(cta)
			if err != nil {
				return err
			}
			if box.Width <= minCTAWidth {
				return errs.Assertf("CTA width %.0fpx on %s, want > %dpx", box.Width, vp.Size(), minCTAWidth)
			}
			return nil
		},
	}
}

func matrixDesktopNav() Check {
	return Check{
		ID: "matrix/nav/desktop", Group: GroupMatrix,
		Name:     "desktop nav is visible on large screens",
		Viewport: pin(viewport.Desktop),
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			return expectFirstVisible(s, "nav", "nav")
		},
	}
}

func matrixMobileNav() Check {
	return Check{
		ID: "matrix/nav/mobile", Group: GroupMatrix, Tags: []string{TagMobile},
		Name:     "nav works on mobile (visible or has hamburger)",
		Viewport: pin(viewport.MobileLarge),
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			return expectNavOrHamburger(s, HamburgerAriaChain)
		},
	}
}

func matrixEmailInput(vp viewport.Viewport) Check {
	return Check{
		ID: "matrix/email/" + vp.Key, Group: GroupMatrix,
		Name:     "form inputs visible on " + vp.Name,
		Viewport: pin(vp),
		Absence:  AllowAbsent,
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			email := s.Locator(EmailInputSelector).First()
			n, err := email.Count()
			if err != nil {
				return wrapAction("count email inputs", err)
			}
			if n == 0 {
				return Absent("email input")
			}
			if err := s.ExpectVisible(email, "email input"); err != nil {
				return err
			}
			box, err := s.BoundingBox(email)
			if err != nil {
				return err
			}
			if !vp.Contains(box.X, box.Width, 0) {
				return errs.Assertf("email input right edge %.0fpx exceeds viewport width %dpx", box.X+box.Width, vp.Width)
			}
			return nil
		},
	}
}

func matrixSection(section string, vp viewport.Viewport, mobile bool) Check {
	name := strings.TrimPrefix(section, "#")
	kind := "desktop"
	var tags []string
	if mobile {
		kind = "mobile"
		tags = []string{TagMobile}
	}
	return Check{
		ID: fmt.Sprintf("matrix/section/%s/%s", name, kind), Group: GroupMatrix, Tags: tags,
		Name:     fmt.Sprintf("%s renders properly on %s", section, kind),
		Viewport: pin(vp),
		Absence:  AllowAbsent,
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			el := s.Locator(section).First()
			n, err := el.Count()
			if err != nil {
				return wrapAction("count "+section, err)
			}
			if n == 0 {
				return Absent(section)
			}
			if err := el.ScrollIntoViewIfNeeded(); err != nil {
				return wrapAction("scroll to "+section, err)
			}
			if mobile {
				if err := s.Pause(ctx, sectionSettleDelay); err != nil {
					return err
				}
			}
			if err := s.ExpectVisible(el, section); err != nil {
				return err
			}
			if !mobile {
				return nil
			}
			box, err := s.BoundingBox(el)
			if err != nil {
				return err
			}
			if box.Width > float64(vp.Width+sectionOverflowPx) {
				return errs.Assertf("%s is %.0fpx wide on %s, want <= %dpx", section, box.Width, vp.Size(), vp.Width+sectionOverflowPx)
			}
			return nil
		},
	}
}

func matrixFontSize(id, name, selector string, minPx float64) Check {
	return Check{
		ID: "matrix/" + id, Group: GroupMatrix, Tags: []string{TagMobile},
		Name:     name,
		Viewport: pin(viewport.MobileSmall),
		Absence:  AllowAbsent,
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			el := s.Locator(selector).First()
			n, err := el.Count()
			if err != nil {
				return wrapAction("count "+selector, err)
			}
			if n == 0 {
				return Absent(selector)
			}
			box, err := el.BoundingBox()
			if err != nil {
				return wrapAction("bounding box "+selector, err)
			}
			if box == nil {
				return Absent("rendered " + selector)
			}
			px, err := s.FontSize(el)
			if err != nil {
				return err
			}
			if px < minPx {
				return errs.Assertf("first %s font-size %.1fpx, want >= %.0fpx", selector, px, minPx)
			}
			return nil
		},
	}
}

func matrixAOSDesktop() Check {
	return Check{
		ID: "matrix/aos/desktop", Group: GroupMatrix,
		Name:     "AOS animations work on desktop",
		Viewport: pin(viewport.Desktop),
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			if err := s.Pause(ctx, aosExtraDelay); err != nil {
				return err
			}
			// The library may still be loading; the markup must be there regardless.
			return expectCount(s, "[data-aos]", 1)
		},
	}
}

func matrixCTATouchTargets() Check {
	return Check{
		ID: "matrix/touch/cta", Group: GroupMatrix, Tags: []string{TagMobile},
		Name:     "primary CTA buttons have minimum touch targets",
		Viewport: pin(viewport.MobileLarge),
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			checked, err := eachVisibleBox(s, PrimaryCTAChain.Union(), func(i int, height float64) error {
				if height < minCTAHeight {
					return errs.Assertf("CTA %d is %.0fpx tall, want >= %dpx", i, height, minCTAHeight)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if checked == 0 {
				return errs.Assertf("no visible primary CTA button to measure")
			}
			return nil
		},
	}
}

func matrixInputTouchTargets() Check {
	return Check{
		ID: "matrix/touch/inputs", Group: GroupMatrix, Tags: []string{TagMobile},
		Name:     "form inputs are easily tappable",
		Viewport: pin(viewport.MobileLarge),
		Absence:  AllowAbsent,
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			checked, err := eachVisibleBox(s, TextInputChain.Union(), func(i int, height float64) error {
				if height < minInputHeight {
					return errs.Assertf("input %d is %.0fpx tall, want >= %dpx", i, height, minInputHeight)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if checked == 0 {
				return Absent("visible text input")
			}
			return nil
		},
	}
}

// eachVisibleBox calls fn with the height of every visible element matching
// selector and returns how many were measured.
func eachVisibleBox(s *harness.Session, selector string, fn func(i int, height float64) error) (int, error) {
	all := s.Locator(selector)
	n, err := all.Count()
	if err != nil {
		return 0, wrapAction("count "+selector, err)
	}
	checked := 0
	for i := range n {
		el := all.Nth(i)
		visible, err := el.IsVisible()
		if err != nil || !visible {
			continue
		}
		box, err := el.BoundingBox()
		if err != nil {
			return checked, wrapAction("bounding box "+selector, err)
		}
		if box == nil {
			continue
		}
		if err := fn(i, box.Height); err != nil {
			return checked, err
		}
		checked++
	}
	return checked, nil
}
