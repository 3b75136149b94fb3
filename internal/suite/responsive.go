package suite

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/viewport"
)

const jsIsHidden = `el => {
	const style = getComputedStyle(el);
	return style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0';
}`

func responsiveChecks() []Check {
	tags := []string{TagMobile}
	return []Check{
		{
			ID: "responsive/mobile-layout", Group: GroupResponsive, Tags: tags,
			Name:     "mobile viewport shows proper layout",
			Viewport: pin(viewport.MobileLarge),
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				if err := expectFirstVisible(s, MobileHeroChain.Union(), "hero"); err != nil {
					return err
				}
				return expectFirstVisible(s, MobileCTAChain.Union(), "CTA")
			},
		},
		{
			ID: "responsive/mobile-nav", Group: GroupResponsive, Tags: tags,
			Name:     "mobile navigation works",
			Viewport: pin(viewport.MobileLarge),
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				return expectNavOrHamburger(s, HamburgerChain)
			},
		},
		{
			ID: "responsive/mobile-form", Group: GroupResponsive, Tags: tags,
			Name:     "forms are usable on mobile",
			Viewport: pin(viewport.MobileLarge),
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				email := s.Locator(EmailInputSelector).First()
				if err := s.ExpectVisible(email, "email input"); err != nil {
					return err
				}
				if err := email.Tap(); err != nil {
					return wrapAction("tap email input", err)
				}
				if err := email.Fill("mobile@test.com"); err != nil {
					return wrapAction("fill email input", err)
				}
				return s.ExpectValue(email, "mobile@test.com")
			},
		},
		{
			ID: "responsive/tablet", Group: GroupResponsive, Tags: tags,
			Name:     "tablet viewport renders correctly",
			Viewport: pin(viewport.TabletPortrait),
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				if err := expectFirstVisible(s, "header", "header"); err != nil {
					return err
				}
				if err := expectFirstVisible(s, MainChain.Union(), "main content"); err != nil {
					return err
				}
				return expectFirstVisible(s, "footer", "footer")
			},
		},
		{
			ID: "responsive/cursor-hidden", Group: GroupResponsive, Tags: tags,
			Name:     "custom cursor is hidden on touch devices",
			Viewport: pin(viewport.MobileLarge),
			Absence:  AllowAbsent,
			Run:      expectCursorHidden,
		},
	}
}

// expectNavOrHamburger passes when a nav is visible or a menu button exists.
func expectNavOrHamburger(s *harness.Session, hamburger harness.Chain) error {
	n, err := s.Count(hamburger.Union())
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	visible, err := s.IsVisible(s.Locator("nav").First())
	if err != nil {
		return err
	}
	if !visible {
		return errs.Assertf("expected a visible nav or a menu button (%s)", hamburger.Union())
	}
	return nil
}

func expectCursorHidden(ctx context.Context, s *harness.Session) error {
	if err := open(ctx, s); err != nil {
		return err
	}
	cursor, n, err := s.Locate(CursorChain)
	if err != nil {
		return err
	}
	if n == 0 {
		return Absent("custom cursor")
	}
	hidden, err := evalLocatorBool(cursor, jsIsHidden)
	if err != nil {
		return err
	}
	if !hidden {
		return errs.Assertf("custom cursor should be hidden on touch devices")
	}
	return nil
}

func evalLocatorBool(loc playwright.Locator, js string) (bool, error) {
	v, err := loc.Evaluate(js, nil)
	if err != nil {
		return false, wrapAction("evaluate", err)
	}
	b, _ := v.(bool)
	return b, nil
}
