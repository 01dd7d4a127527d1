// Command checkrun is a developer tool for exercising the GitHub App
// credentials and webhook signatures the service relies on.
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/garrettladley/checkrun/internal/app"
	"github.com/garrettladley/checkrun/internal/config"
	"github.com/garrettladley/checkrun/internal/version"
	"github.com/garrettladley/checkrun/internal/xslog"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "checkrun",
		Short:         "GitHub App check-run tooling",
		Version:       version.Get(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(assertionCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(versionCmd())

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM)); err != nil {
		os.Exit(1)
	}
}

// loadApp reads configuration the same way the server does. Logs go to
// stderr so stdout stays pipeable.
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	logger := xslog.NewLogger(os.Stderr, cfg.LogLevel)
	return app.New(xslog.WithLogger(ctx, logger), cfg, logger)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and User-Agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", version.Get(), version.UserAgent(""))
			return err
		},
	}
}
