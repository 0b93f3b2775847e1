package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "edusphere",
		Short: "EduSphere API server and maintenance commands",
		Long: `EduSphere serves the learning platform API.

Run without a subcommand to start the HTTP server. The remaining
subcommands apply schema migrations, purge expired remember-me
tokens and provision accounts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), false)
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		purgeTokensCmd(),
		userCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
