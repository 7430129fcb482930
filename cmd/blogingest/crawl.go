package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"BlogIngest/internal/app"
	"BlogIngest/internal/logging"
)

func newCrawlCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <profile-url>",
		Short: "Crawl one profile and print the digest preview as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := opts.load()
			// A preview never reads or writes jobs.
			cfg.Database.DSN = "memory"
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			preview, err := application.Preview(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(preview)
		},
	}
}
