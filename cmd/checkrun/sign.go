package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/garrettladley/checkrun/internal/service/webhook"
)

const stdinArg = "-"

func signCmd() *cobra.Command {
	var secretValue string

	cmd := &cobra.Command{
		Use:   "sign [file]",
		Short: "Compute the X-Hub-Signature-256 header for a payload",
		Long: "Reads the payload from file (or stdin when omitted or \"-\") and prints the\n" +
			"signature GitHub would send. Without --secret the configured webhook secret is used.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			body, err := readPayload(cmd, args)
			if err != nil {
				return err
			}

			if secretValue == "" {
				a, err := loadApp(ctx)
				if err != nil {
					return err
				}
				defer func() { _ = a.Close(ctx) }()

				creds, err := a.Resolver.Resolve(ctx)
				if err != nil {
					return err
				}
				secretValue = creds.WebhookSecret
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), webhook.Sign(body, secretValue))
			return err
		},
	}

	cmd.Flags().StringVar(&secretValue, "secret", "", "webhook secret (defaults to the configured secret)")
	return cmd
}

func readPayload(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == stdinArg {
		body, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return body, nil
	}
	body, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return body, nil
}
