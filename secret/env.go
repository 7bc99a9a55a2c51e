package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProviderName is the provider name used in "secretref:env:<VAR>".
const EnvProviderName = "env"

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvProvider creates an environment provider. A non-empty prefix is
// prepended to every reference.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix, lookup: os.LookupEnv}
}

func newEnvProviderFromConfig(cfg map[string]any) (Provider, error) {
	prefix, _ := cfg["prefix"].(string)
	return NewEnvProvider(prefix), nil
}

func (p *EnvProvider) Name() string { return EnvProviderName }

// Resolve returns the value of the variable named ref. A set but empty
// variable resolves to "".
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidRef
	}
	name := p.prefix + ref
	v, ok := p.lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: environment variable %s", ErrNotFound, name)
	}
	return v, nil
}

func (p *EnvProvider) Close() error { return nil }

var _ Provider = (*EnvProvider)(nil)
