package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lc_accountability/internal/app/service"
	"lc_accountability/internal/domain/model"
)

func newStatsCmd(c *cli) *cobra.Command {
	var (
		window windowFlags
		output outputFlags
	)
	cmd := &cobra.Command{
		Use:   "stats [leetcode-username...]",
		Short: "Print unique solves per user for a window",
		Long:  "Print unique solves per user for a window. With no usernames, every active user in the directory is reported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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

			users := make([]model.User, 0, len(args))
			for _, name := range args {
				users = append(users, model.User{Name: name, LeetCodeID: name, IsActive: true})
			}
			if len(users) == 0 {
				if users, err = comps.users.ActiveUsers(ctx); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Fetching statistics for %d users over the past %d days...\n", len(users), w.Days())
			_, results := comps.accountability.Run(ctx, users, w, false)
			if err := output.render(cmd.OutOrStdout(), w, statsOf(results), ""); err != nil {
				return err
			}
			return service.JoinErrors(results)
		},
	}
	addWindowFlags(cmd, &window)
	addOutputFlags(cmd, &output)
	return cmd
}

func addWindowFlags(cmd *cobra.Command, f *windowFlags) {
	cmd.Flags().IntVar(&f.days, "days", 7, "number of days to look back (defaults to LOOKBACK_DAYS)")
	cmd.Flags().StringVar(&f.start, "start", "", "window start, ISO datetime; overrides --days")
	cmd.Flags().StringVar(&f.end, "end", "", "window end, ISO datetime (defaults to now)")
}

func addOutputFlags(cmd *cobra.Command, f *outputFlags) {
	cmd.Flags().StringVar(&f.format, "output", "text", "report format: text or html")
	cmd.Flags().StringVar(&f.outFile, "out-file", "", "write the report to this file instead of stdout")
}
