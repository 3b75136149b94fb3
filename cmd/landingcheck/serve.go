package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kuitang/landingcheck/internal/staticserver"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the landing page until interrupted",
		Long: `Serve the site directory over HTTP with caching disabled, on the port
taken from LANDING_SERVER_URL (default 8888). Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides the server URL port)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := serverOptions(cfg)
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		opts.Addr = fmt.Sprintf(":%d", port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on %s (Ctrl+C to stop)\n", opts.SiteDir, opts.Addr)
	return staticserver.New(opts).Serve(ctx)
}
