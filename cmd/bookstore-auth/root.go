package main

import (
	"github.com/spf13/cobra"
)

// BuildVersion is set at link time.
var BuildVersion = "dev"

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "bookstore-auth",
		Short:         "Bearer token verification for the bookstore API",
		Long:          "Verifies Keycloak-issued bearer tokens against the realm signing keys.",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(
		newServeCommand(&envFile),
		newKeysCommand(&envFile),
		newVerifyCommand(&envFile),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				cmd.Printf("%s\n", BuildVersion)
			},
		},
	)

	return root
}
