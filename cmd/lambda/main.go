// Command lambda serves webhook deliveries behind an API Gateway HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/garrettladley/checkrun/internal/app"
	"github.com/garrettladley/checkrun/internal/config"
	"github.com/garrettladley/checkrun/internal/xslog"
)

func main() {
	logger := xslog.NewLoggerFromEnv(os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()
	h, err := setup(ctx, logger)
	if err != nil {
		logger.ErrorContext(ctx, "fatal error", xslog.Error(err))
		os.Exit(1)
	}
	lambda.Start(h.Handle)
}

func setup(ctx context.Context, logger *slog.Logger) (*lambdaHandler, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// the execution environment is frozen, not shut down, between
	// invocations, so the app is never closed
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return newLambdaHandler(a.Webhook, logger), nil
}
