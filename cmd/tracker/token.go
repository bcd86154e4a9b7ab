package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lc_accountability/internal/common"
	"lc_accountability/internal/common/security"
)

func newTokenCmd(c *cli) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a bearer token for the report API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.ValidateAPI(); err != nil {
				return err
			}
			if role != security.RoleViewer && role != security.RoleAdmin {
				return fmt.Errorf("role %q must be %s or %s: %w", role, security.RoleViewer, security.RoleAdmin, common.ErrValidation)
			}
			token, err := security.NewTokenIssuer(c.cfg.JWTKey, c.cfg.JWTExp).GenerateToken(args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", security.RoleViewer, "token role: viewer or admin")
	return cmd
}
