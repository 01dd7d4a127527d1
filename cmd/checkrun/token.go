package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		installationID int64
		showToken      bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Exchange an app assertion for an installation access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if installationID <= 0 {
				return errors.New("--installation is required")
			}
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

			tok, err := a.Issuer.InstallationToken(ctx, creds, installationID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showToken {
				if _, err := fmt.Fprintln(out, tok.AccessToken); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(out, "installation %d token expires at %s (in %s)\n",
				installationID,
				tok.Expiry.Format(time.RFC3339),
				time.Until(tok.Expiry).Round(time.Second),
			)
			return err
		},
	}

	cmd.Flags().Int64Var(&installationID, "installation", 0, "installation id")
	cmd.Flags().BoolVar(&showToken, "show", false, "print the token itself")
	return cmd
}
