// Package app builds the object graph shared by every entry point: the
// long-running server, the Lambda adapter and the developer CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/garrettladley/checkrun/internal/client/github"
	"github.com/garrettladley/checkrun/internal/config"
	"github.com/garrettladley/checkrun/internal/ghapp"
	"github.com/garrettladley/checkrun/internal/metrics"
	xredis "github.com/garrettladley/checkrun/internal/redis"
	"github.com/garrettladley/checkrun/internal/secret"
	"github.com/garrettladley/checkrun/internal/server"
	"github.com/garrettladley/checkrun/internal/server/handler"
	"github.com/garrettladley/checkrun/internal/service/checks"
	"github.com/garrettladley/checkrun/internal/service/webhook"
)

const memoryCacheCleanupInterval = time.Minute

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Client   *github.Client
	Issuer   *ghapp.Issuer
	Resolver *secret.Resolver
	Webhook  *webhook.Processor

	closers []func(context.Context) error
}

type Option func(*options)

type options struct {
	provider secret.Provider
}

// WithSecretProvider replaces the provider selected by SECRETS_SOURCE.
func WithSecretProvider(p secret.Provider) Option {
	return func(o *options) { o.provider = p }
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger}

	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.Metrics = m
	a.closers = append(a.closers, m.Shutdown)

	provider := o.provider
	if provider == nil {
		provider, err = newSecretProvider(ctx, cfg.Secrets)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}
	provider, err = a.withCache(ctx, provider)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Client = github.NewClient(
		github.WithBaseURL(cfg.GitHub.APIURL),
		github.WithAPIVersion(cfg.GitHub.APIVersion),
		github.WithUserAgent(cfg.GitHub.UserAgent),
		github.WithTimeout(cfg.GitHub.Timeout),
		github.WithObserver(m),
	)
	a.Issuer = ghapp.NewIssuer(a.Client)
	a.Resolver = secret.NewResolver(provider, secret.Names{
		WebhookSecret: cfg.Secrets.WebhookSecretName,
		AppID:         cfg.Secrets.AppIDName,
		PrivateKey:    cfg.Secrets.PrivateKeyName,
	})

	table := checks.NewTable(a.Issuer, a.Client, checks.Config{
		CheckName:  cfg.GitHub.CheckName,
		DetailsURL: cfg.GitHub.DetailsURL,
	})
	a.Webhook = webhook.NewProcessor(a.Resolver, table, m)

	logger.InfoContext(ctx, "initialized app",
		slog.String("secrets_source", string(cfg.Secrets.Source)),
		slog.Duration("secrets_cache_ttl", cfg.Secrets.CacheTTL),
		slog.Any("routes", table.Routes()),
	)
	return a, nil
}

// Handler is the full HTTP surface including /metrics.
func (a *App) Handler() http.Handler {
	return server.NewHandler(a.Logger, handler.NewWebhook(a.Webhook), a.Metrics.Handler())
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newSecretProvider(ctx context.Context, cfg config.Secrets) (secret.Provider, error) {
	switch cfg.Source {
	case config.SecretSourceSSM:
		p, err := secret.NewSSMProviderFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ssm secret provider: %w", err)
		}
		return p, nil
	default:
		return secret.NewEnvProvider(), nil
	}
}

func (a *App) withCache(ctx context.Context, provider secret.Provider) (secret.Provider, error) {
	ttl := a.Config.Secrets.CacheTTL
	if ttl <= 0 {
		return provider, nil
	}

	if url := a.Config.Redis.URL; url != "" {
		client, err := xredis.New(ctx, xredis.Config{URL: url})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis client: %w", err)
		}
		a.closers = append(a.closers, closeRedis(client))

		// the private key never leaves the process
		local := a.newMemoryStore()
		a.Logger.InfoContext(ctx, "caching secrets in redis",
			slog.Duration("ttl", ttl),
			slog.String("memory_only", a.Config.Secrets.PrivateKeyName),
		)
		return secret.NewCachingProvider(provider, secret.NewRedisStore(client), ttl,
			secret.WithStoreFor(local, a.Config.Secrets.PrivateKeyName),
		), nil
	}

	return secret.NewCachingProvider(provider, a.newMemoryStore(), ttl), nil
}

func (a *App) newMemoryStore() *secret.MemoryStore {
	store := secret.NewMemoryStore(memoryCacheCleanupInterval)
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	return store
}

func closeRedis(client *goredis.Client) func(context.Context) error {
	return func(context.Context) error { return client.Close() }
}
