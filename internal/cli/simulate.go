package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/teampulse/internal/simulate"
)

func newSimulateCmd(g *globals) *cobra.Command {
	cfg := simulate.Config{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a running server with random contributions and verify analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := simulate.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			rows := [][]string{
				{"groups", fmt.Sprint(stats.Groups)},
				{"students", fmt.Sprint(stats.Students)},
				{"submitted", fmt.Sprint(stats.Submitted)},
				{"accepted", fmt.Sprint(stats.Accepted)},
				{"duplicate", fmt.Sprint(stats.Duplicate)},
				{"rejected", fmt.Sprint(stats.Rejected)},
				{"failed", fmt.Sprint(stats.Failed)},
				{"snapshots", fmt.Sprint(stats.SnapshotsSeen)},
				{"instructor alerts", fmt.Sprint(stats.FeedAlerts)},
				{"recommendations", fmt.Sprint(stats.Recommendations)},
				{"duration", stats.Duration.Round(time.Millisecond).String()},
			}
			return printTable(cmd.OutOrStdout(), []string{"Metric", "Value"}, rows)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "target", simulate.DefaultBaseURL, "base URL of the server")
	f.StringVar(&cfg.Token, "token", "", "bearer token with a staff role")
	f.IntVar(&cfg.Students, "students", 0, "roster students to use; 0 means all")
	f.IntVar(&cfg.Contributions, "contributions", simulate.DefaultContributions, "contributions to submit")
	f.IntVar(&cfg.Workers, "concurrency", simulate.DefaultWorkers, "concurrent submitters")
	f.Float64Var(&cfg.DuplicateRate, "duplicates", 0.05, "fraction of submissions that replay an earlier id")
	f.DurationVar(&cfg.Timeout, "timeout", simulate.DefaultTimeout, "per-request timeout")
	f.DurationVar(&cfg.Settle, "settle", simulate.DefaultSettle, "how long to wait for analysis to catch up")
	f.Uint64Var(&cfg.Seed, "seed", 0, "random seed; 0 picks one")
	return cmd
}
