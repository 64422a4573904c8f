package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/vigia/internal/ingest"
	"github.com/okian/vigia/pkg/logger"
)

func newIngestCmd() *cobra.Command {
	cfg := ingest.DefaultConfig()
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a running service with synthetic politicians and actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			_ = logger.SetLevelString(level)

			_, err := ingest.Run(cmd.Context(), cfg, cmd.OutOrStdout())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	flags.IntVar(&cfg.Politicians, "politicians", cfg.Politicians, "Number of politicians to create")
	flags.IntVar(&cfg.Actions, "actions", cfg.Actions, "Number of unique actions to generate")
	flags.Float64Var(&cfg.Duplicates, "duplicates", cfg.Duplicates, "Share of actions re-sent verbatim")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent submitters")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	flags.BoolVar(&cfg.Async, "async", false, "Submit through POST /actions/async")
	flags.DurationVar(&cfg.Settle, "settle", cfg.Settle, "How long to wait for queued actions")
	flags.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Generator seed")
	flags.StringVar(&cfg.OutputFile, "output", "", "Write generated actions to this JSON file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log progress")
	return cmd
}
