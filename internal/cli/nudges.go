package cli

import (
	"context"

	"github.com/spf13/cobra"

	service "github.com/okian/teampulse/internal/app"
)

func newNudgesCmd(g *globals) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "nudges <student>",
		Short: "Print a student's nudges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				n, err := svc.StudentNudges(ctx, args[0], groupID)
				if err != nil {
					return err
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), n)
				}
				rows := make([][]string, 0, len(n.Nudges))
				for _, nd := range n.Nudges {
					rows = append(rows, []string{nd.Icon + " " + nd.Title, nd.Message, nd.SuggestedAction})
				}
				return printTable(cmd.OutOrStdout(), []string{"Nudge", "Message", "Suggested action"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&groupID, "group", "", "group id; resolved from membership when empty")
	return cmd
}
