// Package quickcheck runs the browser-free subset of the suite: it fetches
// the landing page over plain HTTP and inspects the served HTML with
// goquery. It cannot see layout, scripts or computed styles, so it only
// covers markup and copy.
package quickcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/logutil"
	"github.com/kuitang/landingcheck/internal/obs"
	"github.com/kuitang/landingcheck/internal/suite"
	"github.com/kuitang/landingcheck/internal/urlutil"
)

// maxPageBytes caps how much of the page is read.
const maxPageBytes = 10 << 20

// Finding is the outcome of one offline check.
type Finding struct {
	Check  string
	OK     bool
	Detail string
}

// Failed returns the findings that did not hold.
func Failed(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if !f.OK {
			out = append(out, f)
		}
	}
	return out
}

// Fetch downloads url and parses it. The raw HTML is returned alongside the
// document so content patterns see exactly what the server sent.
func Fetch(ctx context.Context, client *http.Client, url string) (*goquery.Document, string, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errs.Wrap(errs.InvalidArgument, "build request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", errs.Wrap(errs.Navigation, "fetch "+url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", errs.Newf(errs.Navigation, "fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, "", errs.Wrap(errs.Navigation, "read "+url, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, "", errs.Wrap(errs.Internal, "parse html", err)
	}
	return doc, string(body), nil
}

// Lint fetches baseURL and inspects it.
func Lint(ctx context.Context, client *http.Client, baseURL string) ([]Finding, error) {
	url := urlutil.BuildAbsolute(baseURL, "/")
	doc, raw, err := Fetch(ctx, client, url)
	if err != nil {
		return nil, err
	}
	findings := Inspect(doc, raw)
	obs.From(ctx).With("pkg", "quickcheck").Info("lint_finished",
		"url", url,
		"findings", len(findings),
		"failed", len(Failed(findings)),
	)
	return findings, nil
}

// Inspect evaluates every offline check against a parsed page.
func Inspect(doc *goquery.Document, raw string) []Finding {
	var out []Finding

	title := strings.TrimSpace(doc.Find("title").First().Text())
	out = append(out, Finding{
		Check:  "smoke/title",
		OK:     suite.TitlePattern.MatchString(title),
		Detail: fmt.Sprintf("title %q should match /%s/", title, suite.TitlePattern),
	})

	landmarks := []struct {
		id    string
		chain harness.Chain
	}{
		{"smoke/hero", suite.HeroChain},
		{"smoke/cta", suite.CTAChain},
		{"smoke/nav", harness.Chain{"nav"}},
		{"smoke/header", harness.Chain{"header"}},
		{"smoke/footer", harness.Chain{"footer"}},
		{"smoke/main", suite.MainChain},
		{"smoke/email-input", harness.Chain{suite.EmailInputSelector}},
		{"content/instructors", suite.InstructorsChain},
		{"content/testimonials", suite.TestimonialsChain},
	}
	for _, lm := range landmarks {
		out = append(out, chainFinding(doc, lm.id, lm.chain))
	}

	for _, p := range suite.Patterns() {
		ok := p.Regexp.MatchString(raw)
		detail := fmt.Sprintf("%s: /%s/", p.Name, p.Regexp)
		if !ok {
			detail += " not found in " + logutil.TruncateForLog(raw, 120)
		}
		out = append(out, Finding{Check: "content/" + p.ID, OK: ok, Detail: detail})
	}

	h1, h2 := doc.Find("h1").Length(), doc.Find("h2").Length()
	out = append(out, Finding{
		Check:  "a11y/headings",
		OK:     h1 >= 1 && h2 >= 1,
		Detail: fmt.Sprintf("%d h1 and %d h2 element(s)", h1, h2),
	})
	out = append(out, imgAltFinding(doc))
	out = append(out, inputLabelFinding(doc))
	return out
}

// chainFinding mirrors harness.Chain.Resolve over the static document.
// Selectors goquery cannot compile match nothing.
func chainFinding(doc *goquery.Document, id string, chain harness.Chain) Finding {
	sel, n, _ := chain.Resolve(func(selector string) (int, error) {
		return doc.Find(selector).Length(), nil
	})
	if n == 0 {
		return Finding{Check: id, Detail: "none of " + chain.String() + " present"}
	}
	return Finding{Check: id, OK: true, Detail: fmt.Sprintf("%d match(es) for %s", n, sel)}
}

func imgAltFinding(doc *goquery.Document) Finding {
	imgs := doc.Find("img")
	if imgs.Length() == 0 {
		return Finding{Check: "a11y/img-alt", OK: true, Detail: "no images on page"}
	}
	var missing []string
	imgs.Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); !ok {
			src, _ := s.Attr("src")
			missing = append(missing, src)
		}
	})
	if len(missing) > 0 {
		return Finding{Check: "a11y/img-alt", Detail: "images without alt: " + strings.Join(missing, ", ")}
	}
	return Finding{Check: "a11y/img-alt", OK: true, Detail: fmt.Sprintf("%d image(s) with alt", imgs.Length())}
}

func inputLabelFinding(doc *goquery.Document) Finding {
	inputs := doc.Find(suite.TextInputChain.Union())
	var unlabelled []string
	inputs.Each(func(i int, s *goquery.Selection) {
		if s.AttrOr("placeholder", "") != "" || s.AttrOr("aria-label", "") != "" {
			return
		}
		id := s.AttrOr("id", "")
		if id != "" && doc.Find(fmt.Sprintf(`label[for=%q]`, id)).Length() > 0 {
			return
		}
		if s.ParentsFiltered("label").Length() > 0 {
			return
		}
		unlabelled = append(unlabelled, fmt.Sprintf("input %d (id=%q)", i, id))
	})
	if len(unlabelled) > 0 {
		return Finding{Check: "a11y/input-labels", Detail: "unlabelled: " + strings.Join(unlabelled, ", ")}
	}
	return Finding{Check: "a11y/input-labels", OK: true, Detail: fmt.Sprintf("%d input(s) labelled", inputs.Length())}
}
