package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func assertionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assertion",
		Short: "Mint a GitHub App JWT from the configured secrets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(ctx) }()

			creds, err := a.Resolver.Resolve(ctx)
			if err != nil {
				return err
			}

			jwt, err := a.Issuer.CreateAssertion(creds.AppID, creds.PrivateKey)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), jwt)
			return err
		},
	}
}
