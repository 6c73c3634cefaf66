package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/teampulse/internal/app"
	"github.com/okian/teampulse/internal/config"
	"github.com/okian/teampulse/internal/sampledata"
)

func newSeedCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample course into the configured store",
		Long: `Load three sample groups with their students, contributions, milestones
and messages. Dates are shifted so the course runs up to today. Seeding twice
adds nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.cfg.Store.Driver != config.DriverSQLite {
				return ErrNeedsPersistentStore
			}
			return g.withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				course := sampledata.Build(time.Now())
				if err := sampledata.Load(ctx, svc.Store(), course); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "seeded %d groups, %d students, %d contributions into %s\n",
					len(course.Groups), len(course.Students), len(course.Contributions), g.cfg.Store.DSN)
				return err
			})
		},
	}
}
