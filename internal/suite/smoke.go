package suite

import (
	"context"

	"github.com/kuitang/landingcheck/internal/harness"
)

const ctaTimeoutMS = 10000

func smokeChecks() []Check {
	tags := []string{TagSmoke}
	return []Check{
		{
			ID: "smoke/title", Group: GroupSmoke, Tags: tags,
			Name: "page loads successfully with title",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := s.Goto("/"); err != nil {
					return err
				}
				return s.ExpectTitle(TitlePattern)
			},
		},
		{
			ID: "smoke/hero-visible", Group: GroupSmoke, Tags: tags,
			Name: "main hero section is visible",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				return expectFirstVisible(s, HeroChain.Union(), "hero")
			},
		},
		{
			ID: "smoke/cta-visible", Group: GroupSmoke, Tags: tags,
			Name: "CTA button is visible and clickable",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				return s.ExpectVisibleWithin(s.Locator(CTAChain.Union()).First(), "CTA button", ctaTimeoutMS)
			},
		},
		{
			ID: "smoke/nav-visible", Group: GroupSmoke, Tags: tags,
			Name: "navigation works",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				return expectFirstVisible(s, "nav", "nav")
			},
		},
		{
			ID: "smoke/email-input", Group: GroupSmoke, Tags: tags,
			Name: "form inputs are functional",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				email := s.Locator(EmailInputSelector).First()
				if err := s.ExpectVisibleWithin(email, "email input", ctaTimeoutMS); err != nil {
					return err
				}
				if err := email.Fill("test@example.com"); err != nil {
					return wrapAction("fill email input", err)
				}
				return s.ExpectValue(email, "test@example.com")
			},
		},
		{
			ID: "smoke/semantic-structure", Group: GroupSmoke, Tags: tags,
			Name: "page has proper semantic structure",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				if err := expectFirstVisible(s, "header", "header"); err != nil {
					return err
				}
				return expectFirstVisible(s, "footer", "footer")
			},
		},
	}
}
