package harness

import (
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/landingcheck/internal/errs"
)

// DefaultConsoleAllowList holds substrings of console errors that are
// expected on a static landing page: blocked third-party fetches and the
// missing favicon.
var DefaultConsoleAllowList = []string{
	"net::ERR",
	"Failed to load resource",
	"favicon",
}

// FilterConsoleErrors drops every message containing an allow-listed substring.
func FilterConsoleErrors(messages, allow []string) []string {
	var out []string
	for _, msg := range messages {
		if !containsAny(msg, allow) {
			out = append(out, msg)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ExpectVisible waits up to the expect timeout for loc to become visible.
func (s *Session) ExpectVisible(loc playwright.Locator, what string) error {
	if err := s.expect.Locator(loc).ToBeVisible(); err != nil {
		return errs.Wrap(errs.AssertionFailed, what+" should be visible", err)
	}
	return nil
}

// ExpectVisibleWithin is ExpectVisible with an explicit timeout in milliseconds.
func (s *Session) ExpectVisibleWithin(loc playwright.Locator, what string, timeoutMS float64) error {
	err := s.expect.Locator(loc).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: playwright.Float(timeoutMS),
	})
	if err != nil {
		return errs.Wrap(errs.AssertionFailed, what+" should be visible", err)
	}
	return nil
}

// ExpectValue waits for an input's value to equal want.
func (s *Session) ExpectValue(loc playwright.Locator, want string) error {
	if err := s.expect.Locator(loc).ToHaveValue(want); err != nil {
		return errs.Wrap(errs.AssertionFailed, "input value should be "+want, err)
	}
	return nil
}

// ExpectTitle waits for document.title to match re.
func (s *Session) ExpectTitle(re *regexp.Regexp) error {
	if err := s.expect.Page(s.page).ToHaveTitle(re); err != nil {
		return errs.Wrap(errs.AssertionFailed, "title should match "+re.String(), err)
	}
	return nil
}
