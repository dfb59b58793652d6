package provider

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/attestia/mediakit/errors"
)

// testProvider implements the Provider interface for testing.
type testProvider struct {
	name      string
	available bool
}

func (p *testProvider) Name() string                         { return p.name }
func (p *testProvider) DisplayName() string                  { return p.name }
func (p *testProvider) IsAvailable(_ context.Context) bool   { return p.available }

func TestDefaultElectionFirstRegistered(t *testing.T) {
	reg := NewRegistry[*testProvider]("storage")
	reg.Register(&testProvider{name: "a"})
	reg.Register(&testProvider{name: "b"})

	p, err := reg.Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	if p.Name() != "a" {
		t.Errorf("expected first-registered 'a' as default, got %q", p.Name())
	}
}

func TestDefaultElectionExplicit(t *testing.T) {
	reg := NewRegistry[*testProvider]("storage")
	reg.Register(&testProvider{name: "a"})
	reg.Register(&testProvider{name: "b"}, AsDefault())

	p, err := reg.Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	if p.Name() != "b" {
		t.Errorf("expected explicit default 'b', got %q", p.Name())
	}
}

func TestDefaultEmptyRegistry(t *testing.T) {
	reg := NewRegistry[*testProvider]("transcription")
	_, err := reg.Default()
	if err == nil {
		t.Fatal("expected error for empty registry")
	}
	if !errors.IsCode(err, errors.ErrCodeNoProvidersRegistered) {
		t.Errorf("expected NO_PROVIDERS_REGISTERED, got %v", err)
	}
}

func TestByNameUnknown(t *testing.T) {
	reg := NewRegistry[*testProvider]("storage")
	reg.Register(&testProvider{name: "gcs"})
	reg.Register(&testProvider{name: "s3"})

	_, err := reg.ByName("nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !errors.IsCode(err, errors.ErrCodeProviderNotFound) {
		t.Errorf("expected PROVIDER_NOT_FOUND, got %v", err)
	}
	if !strings.Contains(err.Error(), "gcs") || !strings.Contains(err.Error(), "s3") {
		t.Errorf("expected available names in error, got %q", err.Error())
	}
}

func TestRegisterOverwriteKeepsOrder(t *testing.T) {
	reg := NewRegistry[*testProvider]("storage")
	reg.Register(&testProvider{name: "gcs", available: false})
	reg.Register(&testProvider{name: "s3"})
	reg.Register(&testProvider{name: "gcs", available: true})

	names := reg.Names()
	if len(names) != 2 || names[0] != "gcs" || names[1] != "s3" {
		t.Errorf("expected order preserved [gcs s3], got %v", names)
	}

	p, err := reg.ByName("gcs")
	if err != nil {
		t.Fatalf("ByName failed: %v", err)
	}
	if !p.available {
		t.Error("expected last-registered instance to win")
	}
}

func TestSetDefault(t *testing.T) {
	reg := NewRegistry[*testProvider]("transcription")
	reg.Register(&testProvider{name: "gspeech"})
	reg.Register(&testProvider{name: "openai"})

	if err := reg.SetDefault("openai"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	p, _ := reg.Default()
	if p.Name() != "openai" {
		t.Errorf("expected 'openai', got %q", p.Name())
	}

	if err := reg.SetDefault("missing"); err == nil {
		t.Error("expected error for unknown default")
	}
}

func TestAllInsertionOrder(t *testing.T) {
	reg := NewRegistry[*testProvider]("storage")
	for _, name := range []string{"z", "a", "m"} {
		reg.Register(&testProvider{name: name})
	}
	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 providers, got %d", len(all))
	}
	for i, want := range []string{"z", "a", "m"} {
		if all[i].Name() != want {
			t.Errorf("position %d: expected %q, got %q", i, want, all[i].Name())
		}
	}
}

func TestLazyConstructsOnce(t *testing.T) {
	var calls atomic.Int32
	lazy := NewLazy(func(_ context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	})

	if lazy.Ready() {
		t.Error("expected not ready before first Get")
	}
	for range 5 {
		v, err := lazy.Get(context.Background())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 construction, got %d", calls.Load())
	}
	if !lazy.Ready() {
		t.Error("expected ready after Get")
	}
}

func TestLazyRetriesAfterFailure(t *testing.T) {
	var calls atomic.Int32
	lazy := NewLazy(func(_ context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, fmt.Errorf("transient")
		}
		return 7, nil
	})

	if _, err := lazy.Get(context.Background()); err == nil {
		t.Fatal("expected first Get to fail")
	}
	v, err := lazy.Get(context.Background())
	if err != nil {
		t.Fatalf("expected second Get to succeed, got %v", err)
	}
	if v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
}
