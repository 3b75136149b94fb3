package harness

import "strings"

// Chain is an ordered list of selector alternatives for one logical element.
type Chain []string

// Union joins the chain into one CSS selector list, matching any alternative.
func (c Chain) Union() string {
	return strings.Join(c, ", ")
}

// String implements fmt.Stringer.
func (c Chain) String() string {
	return c.Union()
}

// Resolve tries selectors in order and returns the first with a non-zero
// count. When nothing matches it returns the union and a count of 0.
func (c Chain) Resolve(count func(selector string) (int, error)) (string, int, error) {
	for _, sel := range c {
		n, err := count(sel)
		if err != nil {
			return "", 0, err
		}
		if n > 0 {
			return sel, n, nil
		}
	}
	return c.Union(), 0, nil
}
