package suite

import (
	"context"
	"errors"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
)

const (
	jsHasAOS    = `() => typeof window.AOS !== 'undefined'`
	jsHasGSAP   = `() => typeof window.gsap !== 'undefined'`
	jsHasLenis  = `() => typeof window.lenis !== 'undefined'`
	jsSmoothCSS = `() => getComputedStyle(document.documentElement).scrollBehavior === 'smooth'`
)

const jsGlassCount = `() => {
	let count = 0;
	document.querySelectorAll('*').forEach(el => {
		const style = getComputedStyle(el);
		if (style.backdropFilter && style.backdropFilter !== 'none') {
			count++;
		}
	});
	return count;
}`

func effectsChecks() []Check {
	return []Check{
		{
			ID: "effects/aos", Group: GroupEffects, Name: "AOS animations are initialized",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				if err := expectGlobal(s, jsHasAOS, "window.AOS"); err != nil {
					return err
				}
				return expectCount(s, "[data-aos]", 1)
			},
		},
		{
			ID: "effects/gsap", Group: GroupEffects, Name: "GSAP is loaded",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				return expectGlobal(s, jsHasGSAP, "window.gsap")
			},
		},
		{
			ID: "effects/tilt", Group: GroupEffects, Name: "Vanilla Tilt cards have 3D effect",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				return expectCount(s, "[data-tilt]", 1)
			},
		},
		{
			ID: "effects/smooth-scroll", Group: GroupEffects, Name: "smooth scroll is enabled",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				hasLenis, err := s.EvalBool(jsHasLenis)
				if err != nil {
					return err
				}
				smoothCSS, err := s.EvalBool(jsSmoothCSS)
				if err != nil {
					return err
				}
				if !hasLenis && !smoothCSS {
					return errs.Assertf("expected window.lenis or scroll-behavior: smooth on <html>")
				}
				return nil
			},
		},
		{
			ID: "effects/glassmorphism", Group: GroupEffects, Name: "glassmorphism effects are applied",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				n, err := s.EvalFloat(jsGlassCount)
				if err != nil {
					return err
				}
				if n <= 0 {
					return errs.Assertf("expected at least one element with a backdrop-filter, found none")
				}
				return nil
			},
		},
	}
}

func expectGlobal(s *harness.Session, js, name string) error {
	ok, err := s.EvalBool(js)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Assertf("%s should be defined", name)
	}
	return nil
}

// expectCount asserts at least minimum elements match selector.
func expectCount(s *harness.Session, selector string, minimum int) error {
	n, err := s.Count(selector)
	if err != nil {
		return err
	}
	if n < minimum {
		return errs.Assertf("expected at least %d %s element(s), found %d", minimum, selector, n)
	}
	return nil
}

// wrapAction classifies a failed locator action.
func wrapAction(what string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return errs.Wrap(errs.Timeout, what, err)
	}
	return errs.Wrap(errs.Internal, what, err)
}
