package main

import (
	"os"

	"cdr.dev/slog"
	"github.com/spf13/cobra"

	"lc_accountability/internal/platform/config"
	"lc_accountability/internal/platform/logging"
)

// cli carries what every subcommand needs once the root has loaded config.
type cli struct {
	cfg    *config.Config
	logger slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var logLevel string

	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Track LeetCode practice and hold a group accountable for missed quotas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			c.cfg = cfg
			c.logger = logging.New(os.Stderr, cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	root.AddCommand(
		newStatsCmd(c),
		newHoldAccountableCmd(c),
		newServeCmd(c),
		newTokenCmd(c),
	)
	return root
}
