package suite

import (
	"context"
	"fmt"
	"slices"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
)

func accessibilityChecks() []Check {
	return []Check{
		{
			ID: "a11y/headings", Group: GroupAccessibility, Name: "page has proper heading hierarchy",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := s.Goto("/"); err != nil {
					return err
				}
				if err := expectCount(s, "h1", 1); err != nil {
					return err
				}
				return expectCount(s, "h2", 1)
			},
		},
		{
			ID: "a11y/img-alt", Group: GroupAccessibility, Name: "images have alt text",
			Absence: AllowAbsent,
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				n, err := s.Count("img")
				if err != nil {
					return err
				}
				if n == 0 {
					return Absent("images")
				}
				return expectCount(s, "img[alt]", 1)
			},
		},
		{
			ID: "a11y/input-labels", Group: GroupAccessibility, Name: "form inputs have labels or placeholders",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				return expectInputsLabelled(s)
			},
		},
		{
			ID: "a11y/keyboard-focus", Group: GroupAccessibility, Name: "buttons are keyboard accessible",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				for range 2 {
					if err := s.PressKey("Tab"); err != nil {
						return err
					}
				}
				tag, err := s.FocusedTag()
				if err != nil {
					return err
				}
				if !slices.Contains(InteractiveTags, tag) {
					return errs.Assertf("focus after two Tab presses landed on <%s>, want one of %v", tag, InteractiveTags)
				}
				return nil
			},
		},
	}
}

// expectInputsLabelled requires every text/email input to carry a
// placeholder, an aria-label, or a matching label[for].
func expectInputsLabelled(s *harness.Session) error {
	inputs := s.Locator(TextInputChain.Union())
	n, err := inputs.Count()
	if err != nil {
		return wrapAction("count inputs", err)
	}
	for i := range n {
		input := inputs.Nth(i)
		placeholder, err := input.GetAttribute("placeholder")
		if err != nil {
			return wrapAction("read placeholder", err)
		}
		ariaLabel, err := input.GetAttribute("aria-label")
		if err != nil {
			return wrapAction("read aria-label", err)
		}
		if placeholder != "" || ariaLabel != "" {
			continue
		}
		id, err := input.GetAttribute("id")
		if err != nil {
			return wrapAction("read id", err)
		}
		if id != "" {
			labels, err := s.Count(fmt.Sprintf(`label[for=%q]`, id))
			if err != nil {
				return err
			}
			if labels > 0 {
				continue
			}
		}
		return errs.Assertf("input %d (id=%q) has no placeholder, aria-label or label", i, id)
	}
	return nil
}
