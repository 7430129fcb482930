package main

import (
	"github.com/spf13/cobra"

	"BlogIngest/internal/config"
)

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() config.Config {
	return config.Load(o.configPath)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "blogingest",
		Short:         "Crawl blog profiles into recency digests",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $BLOG_INGEST_CONFIG)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newCrawlCommand(opts))
	return cmd
}
