package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/teampulse/internal/app"
)

func newFeedCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Print instructor alerts, recommendations and the course summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				feed, err := svc.InstructorFeed(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if g.asJSON {
					return printJSON(out, feed)
				}

				alerts := make([][]string, 0, len(feed.Alerts))
				for _, a := range feed.Alerts {
					alerts = append(alerts, []string{string(a.Priority), a.GroupName, a.Message, a.Action})
				}
				if err := printTable(out, []string{"Priority", "Group", "Message", "Action"}, alerts); err != nil {
					return err
				}

				if _, err := fmt.Fprintln(out); err != nil {
					return err
				}
				recs := make([][]string, 0, len(feed.Recommendations))
				for _, r := range feed.Recommendations {
					recs = append(recs, []string{r.Title, r.Target, r.Impact, r.Description})
				}
				if err := printTable(out, []string{"Recommendation", "Target", "Impact", "Description"}, recs); err != nil {
					return err
				}

				s := feed.Summary
				_, err = fmt.Fprintf(out, "\n%d groups: %d thriving, %d healthy, %d at risk, %d critical. %d alerts, %d recommendations.\n",
					s.TotalGroups, s.Thriving, s.Healthy, s.AtRisk, s.Critical, s.TotalAlerts, s.Recommendations)
				return err
			})
		},
	}
}
