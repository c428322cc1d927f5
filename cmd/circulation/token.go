package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfwise/circulation/circulation/auth"
	"github.com/shelfwise/circulation/circulation/shared/core"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token, e.g. for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			resolver, err := auth.NewJWTResolver(cfg.Auth.JWTSecret, auth.WithIssuer(cfg.Auth.Issuer))
			if err != nil {
				return err
			}

			token, err := resolver.Issue(core.Actor{UserID: userID, Role: core.Role(role)}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)

			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "subject of the token")
	cmd.Flags().StringVar(&role, "role", string(core.RoleUser), "role claim: user or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "lifetime of the token")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
