// Package suite is the catalog of landing page checks. Each check is data:
// an ID, a group, tags, an optional pinned viewport, an absence policy and a
// Run function driving a harness.Session.
package suite

import (
	"context"
	"regexp"
	"slices"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/viewport"
)

// AbsencePolicy decides what a missing optional element means.
type AbsencePolicy int

const (
	// RequirePresent fails the check when its element is missing.
	RequirePresent AbsencePolicy = iota
	// AllowAbsent records a missing element as a vacuous pass.
	AllowAbsent
)

func (p AbsencePolicy) String() string {
	if p == AllowAbsent {
		return "allow-absent"
	}
	return "require-present"
}

// Groups, in catalog order.
const (
	GroupSmoke         = "smoke"
	GroupContent       = "content"
	GroupEffects       = "effects"
	GroupResponsive    = "responsive"
	GroupAccessibility = "accessibility"
	GroupInteraction   = "interaction"
	GroupPerformance   = "performance"
	GroupMatrix        = "viewport-matrix"
)

// Tags.
const (
	TagSmoke  = "@smoke"
	TagMobile = "@mobile"
)

// Check is one independently runnable verification.
type Check struct {
	ID       string
	Group    string
	Name     string
	Tags     []string
	Viewport *viewport.Viewport
	Absence  AbsencePolicy
	Run      func(ctx context.Context, s *harness.Session) error
}

// HasTag reports whether the check carries tag.
func (c Check) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// Absent reports that the element a check targets does not exist. The
// runner turns it into a vacuous pass or a failure per the check's policy.
func Absent(what string) error {
	return errs.Skip("no " + what + " on page")
}

// Selector narrows the catalog. Zero value selects everything.
type Selector struct {
	Tags   []string
	Groups []string
	Only   *regexp.Regexp
}

// Filter returns the checks matching sel, preserving order. A check matches
// when it carries any requested tag, belongs to any requested group, and
// its ID or name matches Only.
func Filter(checks []Check, sel Selector) []Check {
	var out []Check
	for _, c := range checks {
		if len(sel.Tags) > 0 && !slices.ContainsFunc(sel.Tags, c.HasTag) {
			continue
		}
		if len(sel.Groups) > 0 && !slices.Contains(sel.Groups, c.Group) {
			continue
		}
		if sel.Only != nil && !sel.Only.MatchString(c.ID) && !sel.Only.MatchString(c.Name) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Catalog returns every check in execution order.
func Catalog() []Check {
	var all []Check
	all = append(all, smokeChecks()...)
	all = append(all, contentChecks()...)
	all = append(all, effectsChecks()...)
	all = append(all, responsiveChecks()...)
	all = append(all, accessibilityChecks()...)
	all = append(all, interactionChecks()...)
	all = append(all, performanceChecks()...)
	all = append(all, matrixChecks()...)
	return all
}

// open loads the landing page and waits for it to settle.
func open(ctx context.Context, s *harness.Session) error {
	if err := s.Goto("/"); err != nil {
		return err
	}
	return s.WaitForPageReady(ctx)
}

// expectFirstVisible asserts the first element matching selector is visible.
func expectFirstVisible(s *harness.Session, selector, what string) error {
	return s.ExpectVisible(s.Locator(selector).First(), what)
}

func pin(vp viewport.Viewport) *viewport.Viewport {
	return &vp
}
