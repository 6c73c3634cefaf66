package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	service "github.com/okian/teampulse/internal/app"
	"github.com/okian/teampulse/internal/domain/model"
)

func newReportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "report [group]",
		Short: "Print group health",
		Long:  "Without a group, print one health line per group. With a group, print its assessment, alerts and member metrics.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				if len(args) == 1 {
					return reportOne(ctx, g, cmd, svc, args[0])
				}
				return reportAll(ctx, g, cmd, svc)
			})
		},
	}
}

func reportAll(ctx context.Context, g *globals, cmd *cobra.Command, svc *service.Service) error {
	groups, err := svc.Groups(ctx)
	if err != nil {
		return err
	}
	reports := make([]service.GroupReport, 0, len(groups))
	for _, grp := range groups {
		r, err := svc.GroupReport(ctx, grp.ID)
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}
	if g.asJSON {
		return printJSON(cmd.OutOrStdout(), reports)
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Group.ID,
			r.Group.Name,
			r.Report.Status.Label(),
			fmtFloat(r.Report.HealthScore),
			fmtPercent(r.Report.Metrics.ParticipationRate),
			fmtFloat(r.Report.Metrics.TotalHours),
			strconv.Itoa(model.CountBySeverity(r.Report.Alerts, model.SeverityHigh)),
			strconv.Itoa(model.CountBySeverity(r.Report.Alerts, model.SeverityMedium)),
		})
	}
	return printTable(cmd.OutOrStdout(),
		[]string{"Group", "Name", "Health", "Score", "Participation", "Hours", "High", "Medium"}, rows)
}

func reportOne(ctx context.Context, g *globals, cmd *cobra.Command, svc *service.Service, groupID string) error {
	r, err := svc.GroupReport(ctx, groupID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if g.asJSON {
		return printJSON(out, r)
	}

	if _, err := fmt.Fprintf(out, "%s (%s)\n%s\n\n", r.Group.Name, r.Group.ID, r.Assessment); err != nil {
		return err
	}

	members := make([][]string, 0, len(r.Report.Metrics.Students))
	for _, s := range r.Report.Metrics.Students {
		last := "never"
		if s.HasContributed() {
			last = strconv.Itoa(s.DaysSinceLast) + "d ago"
		}
		members = append(members, []string{
			s.StudentID,
			fmtFloat(s.TotalHours),
			strconv.Itoa(s.ContributionCount),
			fmtPercent(s.Share),
			last,
		})
	}
	if err := printTable(out, []string{"Student", "Hours", "Records", "Share", "Last"}, members); err != nil {
		return err
	}

	if len(r.Report.Alerts) == 0 {
		_, err := fmt.Fprintln(out, "\nno alerts")
		return err
	}
	alerts := make([][]string, 0, len(r.Report.Alerts))
	for _, a := range r.Report.Alerts {
		alerts = append(alerts, []string{a.Severity.String(), string(a.Category()), a.Message})
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	return printTable(out, []string{"Severity", "Category", "Message"}, alerts)
}
