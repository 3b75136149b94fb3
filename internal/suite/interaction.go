package suite

import (
	"context"
	"time"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
)

const (
	scrollWait = time.Second
	hoverWait  = 300 * time.Millisecond

	jsHasTransform = `el => {
	const style = getComputedStyle(el);
	return style.transform !== 'none' && style.transform !== '';
}`
)

func interactionChecks() []Check {
	return []Check{
		{
			ID: "interaction/nav-scroll", Group: GroupInteraction, Name: "clicking nav links scrolls to sections",
			Absence: AllowAbsent,
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				link := s.Locator(HashNavLinkSelector).First()
				n, err := link.Count()
				if err != nil {
					return wrapAction("count nav links", err)
				}
				if n == 0 {
					return Absent("hash nav link")
				}
				before, err := s.ScrollY()
				if err != nil {
					return err
				}
				if err := link.Click(); err != nil {
					return wrapAction("click nav link", err)
				}
				if err := s.Pause(ctx, scrollWait); err != nil {
					return err
				}
				after, err := s.ScrollY()
				if err != nil {
					return err
				}
				if after == before {
					return errs.Assertf("scrollY stayed at %.0f after clicking a hash nav link", before)
				}
				return nil
			},
		},
		{
			ID: "interaction/faq-expand", Group: GroupInteraction, Name: "FAQ accordion expands on click",
			Absence: AllowAbsent,
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				item := s.Locator(FAQChain.Union()).First()
				n, err := item.Count()
				if err != nil {
					return wrapAction("count FAQ items", err)
				}
				if n == 0 {
					return Absent("FAQ item")
				}
				if err := item.Click(); err != nil {
					return wrapAction("click FAQ item", err)
				}
				if err := s.Pause(ctx, hoverWait); err != nil {
					return err
				}
				return s.ExpectVisible(item.Locator(FAQAnswerChain.Union()).First(), "FAQ answer")
			},
		},
		{
			ID: "interaction/card-hover", Group: GroupInteraction, Name: "hover effects work on cards",
			Absence: AllowAbsent,
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				card := s.Locator(CardChain.Union()).First()
				n, err := card.Count()
				if err != nil {
					return wrapAction("count cards", err)
				}
				if n == 0 {
					return Absent("card")
				}
				if err := card.Hover(); err != nil {
					return wrapAction("hover card", err)
				}
				if err := s.Pause(ctx, hoverWait); err != nil {
					return err
				}
				transformed, err := evalLocatorBool(card, jsHasTransform)
				if err != nil {
					return err
				}
				if !transformed {
					return errs.Assertf("hovered card should have a transform applied")
				}
				return nil
			},
		},
	}
}
