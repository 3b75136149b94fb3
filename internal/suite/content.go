package suite

import (
	"context"
	"regexp"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/logutil"
)

const contentPreviewChars = 200

// expectContent asserts the serialized DOM matches every pattern.
func expectContent(s *harness.Session, patterns ...*regexp.Regexp) error {
	html, err := s.Content()
	if err != nil {
		return err
	}
	for _, re := range patterns {
		if !re.MatchString(html) {
			return errs.Assertf("page content should match /%s/ (content: %s)", re, logutil.TruncateForLog(html, contentPreviewChars))
		}
	}
	return nil
}

func contentCheck(id, name string, patterns ...*regexp.Regexp) Check {
	return Check{
		ID: "content/" + id, Group: GroupContent, Name: name,
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			return expectContent(s, patterns...)
		},
	}
}

func sectionContentCheck(id, name string, chain harness.Chain, what string, pattern *regexp.Regexp) Check {
	return Check{
		ID: "content/" + id, Group: GroupContent, Name: name,
		Run: func(ctx context.Context, s *harness.Session) error {
			if err := open(ctx, s); err != nil {
				return err
			}
			loc, _, err := s.Locate(chain)
			if err != nil {
				return err
			}
			if err := s.ExpectVisible(loc, what); err != nil {
				return err
			}
			return expectContent(s, pattern)
		},
	}
}

func contentChecks() []Check {
	return []Check{
		sectionContentCheck("instructors", "instructors section exists with credentials", InstructorsChain, "instructors section", UniversityPattern),
		sectionContentCheck("testimonials", "testimonials section exists with salary info", TestimonialsChain, "testimonials section", SalaryPattern),
		contentCheck("curriculum", "curriculum section shows 10-day program", ProgramPattern, DayPattern),
		contentCheck("pricing", "pricing section shows course cost", PricePattern),
		contentCheck("guarantee", "money-back guarantee is mentioned", GuaranteePattern),
		contentCheck("cohort-dates", "cohort dates are shown", CohortPattern),
	}
}
