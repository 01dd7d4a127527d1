// Package server assembles the HTTP surface: routes and the middleware stack
// every request passes through.
package server

import (
	"log/slog"
	"net/http"

	"github.com/garrettladley/checkrun/internal/server/handler"
	"github.com/garrettladley/checkrun/internal/xhttp/middleware"
)

const WebhookPath = "/webhooks/github"

// NewHandler routes POST /webhooks/github, GET /health and, when metrics is
// non-nil, GET /metrics.
func NewHandler(logger *slog.Logger, webhook *handler.Webhook, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+WebhookPath, webhook.HandleWebhook)
	mux.HandleFunc("GET /health", handler.HandleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return middleware.Chain(mux,
		middleware.Recovery,
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Logging,
		middleware.SecurityHeaders,
	)
}
