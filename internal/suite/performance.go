package suite

import (
	"context"
	"time"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
)

const maxLoadTime = 5 * time.Second

func performanceChecks() []Check {
	return []Check{
		{
			ID: "performance/load-time", Group: GroupPerformance, Name: "page loads within acceptable time",
			Run: func(ctx context.Context, s *harness.Session) error {
				start := time.Now()
				if err := s.Goto("/"); err != nil {
					return err
				}
				if err := s.WaitForDOMContentLoaded(); err != nil {
					return err
				}
				elapsed := time.Since(start)
				if elapsed >= maxLoadTime {
					return errs.Assertf("DOMContentLoaded took %s, want < %s", elapsed.Round(time.Millisecond), maxLoadTime)
				}
				return nil
			},
		},
		{
			ID: "performance/console-errors", Group: GroupPerformance, Name: "no console errors on page load",
			Run: func(ctx context.Context, s *harness.Session) error {
				if err := open(ctx, s); err != nil {
					return err
				}
				critical := harness.FilterConsoleErrors(s.ConsoleErrors(), harness.DefaultConsoleAllowList)
				if len(critical) > 0 {
					return errs.Assertf("%d console error(s): %q", len(critical), critical)
				}
				return nil
			},
		},
	}
}
