package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/obs"
	"github.com/kuitang/landingcheck/internal/ratelimit"
	"github.com/kuitang/landingcheck/internal/staticserver"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Browser checks for a static landing page",
		Long: `landingcheck serves a static landing page and verifies it in Chromium:
smoke, content, effects, responsive, accessibility, interaction and
performance checks, plus a viewport matrix across five device sizes.

Configuration comes from LANDING_* environment variables and an optional
.landingcheck.yaml file, which overrides them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			obs.Init()
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				obs.SetLevel(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (default: ./"+config.DefaultConfigFile+" if present)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("site", "", "Directory holding the landing page (overrides LANDING_SITE_DIR)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewLintCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if site, _ := cmd.Flags().GetString("site"); site != "" {
		cfg.SiteDir = site
	}
	return cfg, nil
}

func serverOptions(cfg *config.Config) staticserver.Options {
	return staticserver.Options{
		SiteDir: cfg.SiteDir,
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort()),
		RateLimit: ratelimit.Config{
			RPS:             cfg.RateLimit.RPS,
			Burst:           cfg.RateLimit.Burst,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		},
	}
}
