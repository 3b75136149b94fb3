// Package report renders a run summary as Markdown and sanitized HTML.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/kuitang/landingcheck/internal/runner"
)

// WriteMarkdown writes the full report for summary to w.
func WriteMarkdown(w io.Writer, summary *runner.Summary) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, summary)
	writeCounts(md, summary)
	writeGroups(md, summary)
	writeFailures(md, summary)
	writeFooter(md)

	return md.Build()
}

func writeHeader(md *markdown.Markdown, summary *runner.Summary) {
	md.H1("Landing Page Check Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + summary.RunID + "`"},
			{"Base URL", "`" + summary.BaseURL + "`"},
			{"Projects", strings.Join(summary.Projects, ", ")},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.Round(time.Millisecond).String()},
			{"Result", overall(summary)},
		},
	})
	md.PlainText("")
}

func overall(summary *runner.Summary) string {
	if summary.OK() {
		return "✅ Passed"
	}
	return "❌ Failed"
}

var statusLabels = map[runner.Status]string{
	runner.StatusPassed:   "✅ Passed",
	runner.StatusVacuous:  "⚪ Vacuous",
	runner.StatusFailed:   "❌ Failed",
	runner.StatusTimedOut: "⏱️ Timed out",
	runner.StatusNotRun:   "⏭️ Not run",
}

func writeCounts(md *markdown.Markdown, summary *runner.Summary) {
	md.H2("Summary")
	md.PlainText("")

	counts := summary.Counts()
	rows := make([][]string, 0, len(runner.Statuses())+1)
	for _, st := range runner.Statuses() {
		rows = append(rows, []string{statusLabels[st], strconv.Itoa(counts[st])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(summary.Results)) + "**"})
	md.Table(markdown.TableSet{Header: []string{"Status", "Count"}, Rows: rows})
	md.PlainText("")

	failed := counts[runner.StatusFailed] + counts[runner.StatusTimedOut]
	switch {
	case failed > 0:
		md.Cautionf("%d check(s) failed. Each failure is detailed below.", failed)
	case counts[runner.StatusNotRun] > 0:
		md.Warningf("%d check(s) did not run.", counts[runner.StatusNotRun])
	case counts[runner.StatusVacuous] > 0:
		md.Notef("All checks passed. %d passed vacuously because their element is absent.", counts[runner.StatusVacuous])
	default:
		md.Tip("All checks passed.")
	}
	md.PlainText("")
}

func writeGroups(md *markdown.Markdown, summary *runner.Summary) {
	md.H2("Results")
	md.PlainText("")

	var order []string
	byGroup := map[string][]runner.Result{}
	for _, r := range summary.Results {
		if _, ok := byGroup[r.Group]; !ok {
			order = append(order, r.Group)
		}
		byGroup[r.Group] = append(byGroup[r.Group], r)
	}

	for _, group := range order {
		md.H3(group)
		md.PlainText("")
		rows := make([][]string, 0, len(byGroup[group]))
		for _, r := range byGroup[group] {
			vp := r.Viewport
			if vp == "" {
				vp = "-"
			}
			rows = append(rows, []string{
				"`" + r.CheckID + "`",
				cell(r.Name),
				r.Project,
				vp,
				statusLabels[r.Status],
				r.Duration.Round(time.Millisecond).String(),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Check", "Name", "Project", "Viewport", "Status", "Duration"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func writeFailures(md *markdown.Markdown, summary *runner.Summary) {
	failed := summary.Failed()
	if len(failed) == 0 {
		return
	}
	md.H2("Failures")
	md.PlainText("")
	for _, r := range failed {
		md.H3(fmt.Sprintf("%s (%s)", r.CheckID, r.Project))
		md.PlainText("")
		items := []string{
			"Status: " + statusLabels[r.Status],
			"Code: `" + string(r.Code) + "`",
		}
		if r.Artifact != "" {
			items = append(items, "Screenshot: `"+r.Artifact+"`")
		}
		md.BulletList(items...)
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightText, r.Message)
		md.PlainText("")
	}
}

func writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by landingcheck at %s*", time.Now().UTC().Format(time.RFC3339))
}

// cell keeps free text from breaking the table layout.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
