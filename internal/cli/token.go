package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/teampulse/internal/adapters/identity"
	"github.com/okian/teampulse/internal/domain/model"
)

func newTokenCmd(g *globals) *cobra.Command {
	var (
		subject string
		role    string
		secret  string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT",
		Long:  "Sign a token with auth.jwt_secret (or --secret) for the given subject and role.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			if secret == "" {
				secret = g.cfg.Auth.JWTSecret
			}
			if ttl == 0 {
				ttl = g.cfg.Auth.TokenTTL()
			}
			p, err := identity.NewProvider(secret,
				identity.WithIssuer(g.cfg.Auth.Issuer),
				identity.WithTTL(ttl),
			)
			if err != nil {
				return err
			}
			tok, err := p.Issue(subject, r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "student id or staff name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleStudent), "student|instructor|admin")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret; defaults to auth.jwt_secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime; defaults to auth.token_ttl_hours")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
