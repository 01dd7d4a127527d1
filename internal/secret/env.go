package secret

import (
	"context"
	"os"
)

// EnvProvider reads secrets from process environment variables. The secret
// name is the variable name.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

var _ Provider = (*EnvProvider)(nil)

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// NewMapProvider serves secrets from a fixed map, for tests and local tooling.
func NewMapProvider(values map[string]string) *EnvProvider {
	return &EnvProvider{lookup: func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}}
}

func (p *EnvProvider) Get(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := p.lookup(name)
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}
