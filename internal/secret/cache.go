package secret

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garrettladley/checkrun/internal/xslog"
)

const fetchTimeout = 10 * time.Second

// Store holds cached secret values with a per-entry TTL.
type Store interface {
	// Get returns ErrNotFound on a miss or an expired entry.
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name string, value string, ttl time.Duration) error
}

// CachingProvider serves secrets from a Store and falls through to the wrapped
// Provider on a miss. Concurrent misses for one name share a single fetch.
// Empty values are returned but never stored.
type CachingProvider struct {
	next  Provider
	store Store
	ttl   time.Duration
	group singleflight.Group

	// per-name stores that take precedence over store
	overrides map[string]Store
}

type CacheOption func(*CachingProvider)

// WithStoreFor caches the named secrets in store instead of the default one.
func WithStoreFor(store Store, names ...string) CacheOption {
	return func(p *CachingProvider) {
		if p.overrides == nil {
			p.overrides = make(map[string]Store, len(names))
		}
		for _, name := range names {
			p.overrides[name] = store
		}
	}
}

var _ Provider = (*CachingProvider)(nil)

// NewCachingProvider wraps next with a cache. A non-positive ttl disables
// caching and returns next unchanged.
func NewCachingProvider(next Provider, store Store, ttl time.Duration, opts ...CacheOption) Provider {
	if ttl <= 0 || store == nil {
		return next
	}
	p := &CachingProvider{next: next, store: store, ttl: ttl}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *CachingProvider) storeFor(name string) Store {
	if s, ok := p.overrides[name]; ok {
		return s
	}
	return p.store
}

func (p *CachingProvider) Get(ctx context.Context, name string) (string, error) {
	store := p.storeFor(name)

	value, err := store.Get(ctx, name)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrNotFound) {
		xslog.FromContext(ctx).WarnContext(ctx, "secret cache read failed",
			xslog.SecretName(name),
			xslog.Error(err),
		)
	}

	ch := p.group.DoChan(name, func() (any, error) {
		// outlives any single waiting caller
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		value, err := p.next.Get(fetchCtx, name)
		if err != nil {
			return "", err
		}
		if value == "" {
			return "", nil
		}
		if err := store.Set(fetchCtx, name, value, p.ttl); err != nil {
			xslog.FromContext(ctx).WarnContext(ctx, "secret cache write failed",
				xslog.SecretName(name),
				xslog.Error(err),
			)
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
