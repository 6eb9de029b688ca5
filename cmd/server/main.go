package main

import (
	"os"

	"github.com/nzoschke/cadence/cmd/server/cmd"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cadence",
		Short:        "Recurring goals, daily tasks and journal archive API",
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Serve(c.Context())
		},
	}

	rootCmd.AddCommand(cmd.ServeCmd())
	rootCmd.AddCommand(cmd.GenerateCmd())
	rootCmd.AddCommand(cmd.TokenCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
