package main

import (
	"fmt"
	"strings"
	"time"

	"cdr.dev/slog"
	"github.com/spf13/cobra"

	"lc_accountability/internal/app/service"
	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

func newHoldAccountableCmd(c *cli) *cobra.Command {
	var (
		window windowFlags
		output outputFlags
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "hold-accountable",
		Short: "Charge every active user who missed their quota",
		Long: "Compute unique solves for every active user, charge each shortfall to the ledger " +
			"and split it among the other users, then print the report.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if dryRun {
				c.cfg.DryRun = true
			}
			if !c.cfg.DryRun && c.cfg.SplitwiseAPIKey == "" {
				return fmt.Errorf("SPLITWISE_API_KEY is required unless --dry-run is set: %w", common.ErrValidation)
			}
			if !cmd.Flags().Changed("days") {
				window.days = c.cfg.LookbackDays
			}
			w, err := window.resolve(time.Now())
			if err != nil {
				return err
			}

			comps, err := c.build(ctx, false)
			if err != nil {
				return err
			}
			defer comps.Close()

			users, err := comps.users.ActiveUsers(ctx)
			if err != nil {
				return err
			}
			runID, results := comps.accountability.Run(ctx, users, w, true)
			c.logger.Info(ctx, "accountability run complete",
				slog.F("run_id", runID),
				slog.F("dry_run", c.cfg.DryRun),
				slog.F("summary", service.Summarize(results)),
			)

			if err := output.render(cmd.OutOrStdout(), w, statsOf(results), completionMessage(results, c.cfg.DryRun)); err != nil {
				return err
			}
			return service.JoinErrors(results)
		},
	}
	addWindowFlags(cmd, &window)
	addOutputFlags(cmd, &output)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "decide outcomes without posting expenses")
	return cmd
}

// completionMessage lists who was charged and how much, then the totals.
func completionMessage(results []model.RunResult, dryRun bool) string {
	var lines []string
	for _, r := range results {
		if r.Outcome == nil || r.Outcome.Kind != model.OutcomeCharged {
			continue
		}
		verb := "charged"
		if dryRun {
			verb = "would be charged"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s for %d missed questions.",
			r.User.Name, verb, r.Outcome.Charge.StringFixed(2), r.Outcome.Shortfall))
	}
	if len(lines) == 0 {
		lines = append(lines, "Everyone met their goal. No charges this time.")
	}
	lines = append(lines, "Accountability check complete: "+service.Summarize(results)+".")
	return strings.Join(lines, "\n")
}
