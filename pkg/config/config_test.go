package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_ACQUIRE_TIMEOUT",
		"ANTHROPIC_API_KEY", "GOOGLE_AI_STUDIO_API_KEY", "MAX_ITERATIONS", "EVENT_BUS_CAPACITY",
		"TOOL_HTTP_TIMEOUT", "TOOL_SHELL_TIMEOUT", "HTTP_PORT",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	_, err := Load("")
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRequiresAtLeastOneProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	_, err := Load("")
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 20, cfg.MaxIterations)
	assert.Equal(t, 256, cfg.EventBusCapacity)
}

func TestLoadRejectsIdleExceedingOpen(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("DB_MAX_OPEN_CONNS", "5")
	t.Setenv("DB_MAX_IDLE_CONNS", "10")

	_, err := Load("")
	assert.ErrorContains(t, err, "cannot exceed")
}
