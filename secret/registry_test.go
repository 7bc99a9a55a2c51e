package secret

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("stub", func(cfg map[string]any) (Provider, error) {
		return &stubProvider{name: "stub"}, nil
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("stub", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p == nil || p.Name() != "stub" {
		t.Fatalf("unexpected provider: %#v", p)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("stub", func(cfg map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil })

	if err := reg.Register("stub", func(cfg map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil }); !errors.Is(err, ErrProviderExists) {
		t.Fatalf("err = %v, want ErrProviderExists", err)
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create("missing", nil); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestRegistry_InvalidRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(" ", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("err = %v, want ErrInvalidRegistration", err)
	}
}

func TestDefaultRegistry_BuiltinProviders(t *testing.T) {
	if got := DefaultRegistry.List(); !reflect.DeepEqual(got, []string{"env", "file"}) {
		t.Fatalf("List() = %v, want [env file]", got)
	}
}

func TestRegistry_NewResolver(t *testing.T) {
	t.Setenv("TEST_UPGUARD_KEY", "sk_env")

	r, err := DefaultRegistry.NewResolver(nil, EnvProviderName, FileProviderName)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	defer r.Close()

	if got := r.Providers(); !reflect.DeepEqual(got, []string{"env", "file"}) {
		t.Fatalf("Providers() = %v", got)
	}
	got, err := r.ResolveValue(context.Background(), "secretref:env:TEST_UPGUARD_KEY")
	if err != nil || got != "sk_env" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}

	if _, err := DefaultRegistry.NewResolver(nil, "vault"); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound", err)
	}
}
