package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuitang/landingcheck/internal/artifacts"
	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/report"
	"github.com/kuitang/landingcheck/internal/runner"
	"github.com/kuitang/landingcheck/internal/staticserver"
	"github.com/kuitang/landingcheck/internal/suite"
)

// errChecksFailed makes the process exit nonzero after a report is written.
var errChecksFailed = errors.New("one or more checks failed")

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the browser suite against the landing page",
		Long: `Run starts (or reuses) the static server, launches Chromium, runs the
selected checks once per project and writes report.md and report.html.

Examples:
  # Everything, both projects
  landingcheck run

  # Smoke checks on desktop only
  landingcheck run --project chromium --tag @smoke

  # Only the viewport matrix hero checks
  landingcheck run --group viewport-matrix --grep '^matrix/hero/'`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}
	cmd.Flags().String("project", "", "Run only the named project (e.g. chromium, \"Mobile Chrome\")")
	cmd.Flags().String("grep", "", "Run only checks whose ID or name matches this regexp")
	cmd.Flags().StringSlice("tag", nil, "Run only checks carrying any of these tags (e.g. @smoke, @mobile)")
	cmd.Flags().StringSlice("group", nil, "Run only checks in these groups")
	cmd.Flags().String("report-dir", "", "Directory for report files (default: <artifacts dir>/reports/<run id>)")
	return cmd
}

// selectChecks applies the config focus pattern and the CLI filters.
func selectChecks(cfg *config.Config, grep string, tags, groups []string) ([]suite.Check, error) {
	checks := suite.Filter(suite.Catalog(), suite.Selector{Tags: tags, Groups: groups, Only: cfg.OnlyPattern()})
	if grep != "" {
		re, err := regexp.Compile(grep)
		if err != nil {
			return nil, fmt.Errorf("--grep: %w", err)
		}
		checks = suite.Filter(checks, suite.Selector{Only: re})
	}
	if len(checks) == 0 {
		return nil, errors.New("no checks match the given filters")
	}
	return checks, nil
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("project"); name != "" {
		cfg.Projects = config.SelectProjects(cfg.Projects, name)
		if len(cfg.Projects) == 0 {
			return fmt.Errorf("unknown project %q", name)
		}
	}
	grep, _ := cmd.Flags().GetString("grep")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	groups, _ := cmd.Flags().GetStringSlice("group")
	checks, err := selectChecks(cfg, grep, tags, groups)
	if err != nil {
		return err
	}
	cfg.PrintStartupSummary()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := staticserver.EnsureRunning(ctx, cfg.WebServer, serverOptions(cfg))
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Stop(stopCtx)
	}()

	browser, err := harness.Launch(cfg)
	if err != nil {
		return err
	}
	defer browser.Close()

	store, err := artifacts.NewFromConfig(ctx, cfg.Artifacts)
	if err != nil {
		return err
	}

	summary, err := runner.New(cfg, browser, store).Run(ctx, checks)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("report-dir")
	if dir == "" {
		dir = filepath.Join(cfg.Artifacts.Dir, "reports", summary.RunID)
	}
	mdPath, htmlPath, err := report.WriteFiles(dir, summary)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), summary)
	fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n        %s\n", mdPath, htmlPath)
	if !summary.OK() {
		return errChecksFailed
	}
	return nil
}

func printSummary(w io.Writer, summary *runner.Summary) {
	counts := summary.Counts()
	fmt.Fprintf(w, "\n%d passed, %d vacuous, %d failed, %d timed out, %d not run (%s)\n",
		counts[runner.StatusPassed], counts[runner.StatusVacuous], counts[runner.StatusFailed],
		counts[runner.StatusTimedOut], counts[runner.StatusNotRun], summary.Duration.Round(time.Millisecond))
	for _, r := range summary.Failed() {
		fmt.Fprintf(w, "  ✘ [%s] %s: %s\n", r.Project, r.CheckID, r.Message)
	}
}
