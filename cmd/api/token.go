package main

import (
	"fmt"

	"funkard-admin-service/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenEmail   string
	tokenRoles   []string
)

// tokenCmd mints an admin token from JWT_PRIVATE_KEY_PATH for local use.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an admin access token (development)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWT.PrivPath == "" {
			return fmt.Errorf("JWT_PRIVATE_KEY_PATH is not set")
		}

		gen, err := jwt.LoadGenerator(cfg.JWT)
		if err != nil {
			return err
		}

		token, _, err := gen.Generate(tokenSubject, tokenEmail, tokenRoles)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email recorded as the audit actor")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "role", []string{"admin"}, "roles to grant")
}
