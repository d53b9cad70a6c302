package main

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bookstore-api/tokenauth/internal/keycloak"
)

func newKeysCommand(envFile *string) *cobra.Command {
	var discover bool

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Fetch and list the realm signing keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = a.zap.Sync() }()

			out := cmd.OutOrStdout()

			if discover {
				client := &http.Client{Timeout: a.cfg.Keycloak.HTTPTimeout}
				endpoints, err := keycloak.Discover(cmd.Context(), client, a.urls)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "issuer:        %s\n", endpoints.Issuer)
				fmt.Fprintf(out, "jwks_uri:      %s\n", endpoints.JWKSURI)
				fmt.Fprintf(out, "introspection: %s\n\n", endpoints.IntrospectionEndpoint)
			}

			set, err := a.provider.FetchKeys(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "KID\tALG\tMODE\n")
			for _, kid := range set.IDs() {
				k, _ := set.Lookup(kid)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k.ID(), k.Algorithm().String(), a.provider.Mode())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&discover, "discover", false, "also print the realm discovery endpoints")

	return cmd
}
