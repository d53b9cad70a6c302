package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookstore-api/tokenauth/core"
)

func newVerifyCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a token and print the identity it carries",
		Long:  "Verify a token against the realm keys. The token is read from stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = a.zap.Sync() }()

			raw, err := readToken(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			identity, err := a.verifier.Verify(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("%s: %w", core.ErrorCode(err), err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profileResponse{
				Email:      identity.Email,
				GivenName:  identity.GivenName,
				FamilyName: identity.FamilyName,
				Roles:      identity.Roles,
			})
		},
	}
}

func readToken(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "Bearer "))
	if token == "" {
		return "", errors.New("no token given")
	}
	return token, nil
}
