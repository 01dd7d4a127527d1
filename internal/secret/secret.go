// Package secret resolves the webhook secret and GitHub App identity from an
// external store. Values are looked up by name on every call unless a
// CachingProvider is placed in front of the store.
package secret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrResolve  = errors.New("failed to resolve secret")
	ErrNotFound = errors.New("secret not found")
	ErrEmpty    = errors.New("secret is empty")
)

type Provider interface {
	// Get returns the value stored under name.
	// Returns ErrNotFound if the store has no such entry.
	Get(ctx context.Context, name string) (string, error)
}

// ResolveError reports which secret could not be resolved. It matches both
// ErrResolve and the underlying cause with errors.Is.
type ResolveError struct {
	Name string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve secret %q: %v", e.Name, e.Err)
}

func (e *ResolveError) Unwrap() []error { return []error{ErrResolve, e.Err} }

type Names struct {
	WebhookSecret string
	AppID         string
	PrivateKey    string
}

type Credentials struct {
	AppID         string
	PrivateKey    string
	WebhookSecret string
}

var _ slog.LogValuer = Credentials{}

// LogValue keeps key material out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("app_id", c.AppID),
		slog.Bool("private_key_set", c.PrivateKey != ""),
		slog.Bool("webhook_secret_set", c.WebhookSecret != ""),
	)
}

type Resolver struct {
	provider Provider
	names    Names
}

func NewResolver(provider Provider, names Names) *Resolver {
	return &Resolver{provider: provider, names: names}
}

// Resolve fetches the three secrets one after another. Any failure is fatal
// for the delivery; there are no fallback values.
func (r *Resolver) Resolve(ctx context.Context) (Credentials, error) {
	webhookSecret, err := r.get(ctx, r.names.WebhookSecret)
	if err != nil {
		return Credentials{}, err
	}
	appID, err := r.get(ctx, r.names.AppID)
	if err != nil {
		return Credentials{}, err
	}
	privateKey, err := r.get(ctx, r.names.PrivateKey)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		AppID:         appID,
		PrivateKey:    privateKey,
		WebhookSecret: webhookSecret,
	}, nil
}

func (r *Resolver) get(ctx context.Context, name string) (string, error) {
	value, err := r.provider.Get(ctx, name)
	if err != nil {
		return "", &ResolveError{Name: name, Err: err}
	}
	if value == "" {
		return "", &ResolveError{Name: name, Err: ErrEmpty}
	}
	return value, nil
}
