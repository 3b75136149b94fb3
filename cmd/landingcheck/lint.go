package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuitang/landingcheck/internal/quickcheck"
	"github.com/kuitang/landingcheck/internal/staticserver"
)

// NewLintCmd creates the lint command.
func NewLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Check the served HTML without a browser",
		Long: `Lint fetches the landing page over plain HTTP and checks its markup and
copy: title, landmarks, content patterns, headings, image alt text and
input labels. It needs no browser and finishes in well under a second.`,
		Args: cobra.NoArgs,
		RunE: runLintCmd,
	}
}

func runLintCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	server, err := staticserver.EnsureRunning(ctx, cfg.WebServer, serverOptions(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = server.Stop(context.Background()) }()

	findings, err := quickcheck.Lint(ctx, &http.Client{Timeout: 10 * time.Second}, cfg.BaseURL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range findings {
		mark := "✔"
		if !f.OK {
			mark = "✘"
		}
		fmt.Fprintf(out, "%s %-24s %s\n", mark, f.Check, f.Detail)
	}
	if failed := quickcheck.Failed(findings); len(failed) > 0 {
		return fmt.Errorf("%d lint finding(s) failed", len(failed))
	}
	return nil
}
