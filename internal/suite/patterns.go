package suite

import (
	"regexp"

	"github.com/kuitang/landingcheck/internal/harness"
)

// Pattern is a named content expectation matched against page HTML.
type Pattern struct {
	ID     string
	Name   string
	Regexp *regexp.Regexp
}

var (
	TitlePattern      = regexp.MustCompile(`(?i)AdaVa|University|AI|Coding`)
	UniversityPattern = regexp.MustCompile(`MIT|Stanford|Harvard|Oxford|Cambridge`)
	SalaryPattern     = regexp.MustCompile(`\$[\d,]+`)
	ProgramPattern    = regexp.MustCompile(`(?i)10\s*Days?`)
	DayPattern        = regexp.MustCompile(`(?i)Day\s*[1-9]|Days?\s*[1-9]`)
	PricePattern      = regexp.MustCompile(`\$1,?280|\$1280`)
	GuaranteePattern  = regexp.MustCompile(`(?i)guarantee|refund`)
	CohortPattern     = regexp.MustCompile(`2026|Jan|Feb|Mar|Apr|May`)
)

// Patterns lists the content expectations shared by the browser suite and
// the offline linter.
func Patterns() []Pattern {
	return []Pattern{
		{ID: "universities", Name: "instructor credentials mention a university", Regexp: UniversityPattern},
		{ID: "salary", Name: "testimonials include salary figures", Regexp: SalaryPattern},
		{ID: "program-length", Name: "program is described as 10 days", Regexp: ProgramPattern},
		{ID: "day-numbers", Name: "curriculum lists numbered days", Regexp: DayPattern},
		{ID: "price", Name: "course price of $1,280 is shown", Regexp: PricePattern},
		{ID: "guarantee", Name: "money-back guarantee is mentioned", Regexp: GuaranteePattern},
		{ID: "cohort", Name: "cohort dates are shown", Regexp: CohortPattern},
	}
}

// Selector chains for the page landmarks.
var (
	HeroChain           = harness.Chain{"header.hero", ".hero-section", "#hero"}
	HeroMatrixChain     = harness.Chain{"header.hero", ".hero-section", "#hero", "header"}
	MobileHeroChain     = harness.Chain{".hero", "#hero", "section:first-of-type"}
	CTAChain            = harness.Chain{".cta-btn", ".apply-btn", "a.btn", "button.btn", `[class*="cta"]`}
	CTAMatrixChain      = harness.Chain{".cta-btn", ".apply-btn", "a.btn", "button.btn"}
	MobileCTAChain      = harness.Chain{".cta-btn", ".apply-btn", `a[href*="apply"]`}
	PrimaryCTAChain     = harness.Chain{".cta-btn", ".apply-btn", `button[type="submit"]`}
	InstructorsChain    = harness.Chain{"#instructors", ".instructors", `section:has-text("Instructor")`}
	TestimonialsChain   = harness.Chain{"#testimonials", ".testimonials", `section:has-text("Student")`}
	MainChain           = harness.Chain{"main", ".main-content"}
	HamburgerChain      = harness.Chain{".mobile-menu-btn", ".hamburger", ".menu-toggle"}
	HamburgerAriaChain  = harness.Chain{".hamburger", ".mobile-menu-btn", ".menu-toggle", `[aria-label*="menu"]`}
	CursorChain         = harness.Chain{".custom-cursor", ".cursor-dot"}
	FAQChain            = harness.Chain{".faq-item", ".accordion-item", "details"}
	FAQAnswerChain      = harness.Chain{".faq-answer", ".accordion-content", "p"}
	CardChain           = harness.Chain{"[data-tilt]", ".instructor-card", ".testimonial-card"}
	TextInputChain      = harness.Chain{`input[type="text"]`, `input[type="email"]`}
	EmailInputSelector  = `input[type="email"]`
	HashNavLinkSelector = `nav a[href^="#"]`
)

// Sections are the landing page anchors checked per viewport.
var Sections = []string{"#instructors", "#testimonials", "#curriculum", "#pricing", "#faq"}

// InteractiveTags are the elements keyboard focus may land on.
var InteractiveTags = []string{"a", "button", "input", "select", "textarea"}
