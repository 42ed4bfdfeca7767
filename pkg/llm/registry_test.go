package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetUnconfiguredProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("anthropic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	fake := &FakeProvider{ProviderName: "anthropic"}
	r.Register(fake)

	got, err := r.Get("anthropic")
	require.NoError(t, err)
	assert.Same(t, fake, got)
	assert.Contains(t, r.Names(), "anthropic")
}

func TestRegistryReRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	first := &FakeProvider{ProviderName: "anthropic"}
	second := &FakeProvider{ProviderName: "anthropic"}
	r.Register(first)
	r.Register(second)

	got, err := r.Get("anthropic")
	require.NoError(t, err)
	assert.Same(t, second, got)
}
