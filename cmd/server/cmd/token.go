package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func TokenCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for a user, creating the user if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp(a)

			user, err := a.AuthService.EnsureUser(cmd.Context(), args[0], email)
			if err != nil {
				return fmt.Errorf("failed to ensure user: %w", err)
			}

			token, err := a.AuthService.GenerateJWT(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email for a newly created user (default <user-id>@localhost)")
	return cmd
}
