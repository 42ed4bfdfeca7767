package llm

import (
	"fmt"
	"sync"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// Registry looks up a Provider by its registry key ("anthropic", "google").
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its own Name(). Registering a second
// provider with the same name replaces the first — useful in tests that
// swap in a fake.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name, or a provider_not_configured
// error if none is registered.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeProviderNotConfig,
			fmt.Sprintf("provider %q is not configured", name), apperrors.ErrProviderNotConfigured)
	}
	return p, nil
}

// Names returns the registry keys of all registered providers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
