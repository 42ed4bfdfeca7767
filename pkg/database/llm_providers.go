package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// LLMProvider is a registered backend an agent's model field is routed to.
type LLMProvider struct {
	ID          string
	Name        string
	DisplayName string
	APIBaseURL  *string
	IsEnabled   bool
}

// CreateLLMProvider registers a provider row, idempotently by name.
func (c *Client) CreateLLMProvider(ctx context.Context, name, displayName string, apiBaseURL *string) (*LLMProvider, error) {
	row := c.pool.QueryRow(ctx, `
		INSERT INTO llm_providers (id, name, display_name, api_base_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = now()
		RETURNING id, name, display_name, api_base_url, is_enabled`,
		uuid.NewString(), name, displayName, apiBaseURL)

	return scanLLMProvider(row)
}

// GetLLMProvider fetches a provider by id, requiring it be enabled.
func (c *Client) GetLLMProvider(ctx context.Context, id string) (*LLMProvider, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, name, display_name, api_base_url, is_enabled
		FROM llm_providers WHERE id = $1 AND is_enabled = true`, id)

	return scanLLMProvider(row)
}

// GetLLMProviderByName looks a provider up by its registry name (e.g. "anthropic").
func (c *Client) GetLLMProviderByName(ctx context.Context, name string) (*LLMProvider, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, name, display_name, api_base_url, is_enabled
		FROM llm_providers WHERE name = $1`, name)

	return scanLLMProvider(row)
}

func scanLLMProvider(row rowScanner) (*LLMProvider, error) {
	var p LLMProvider
	err := row.Scan(&p.ID, &p.Name, &p.DisplayName, &p.APIBaseURL, &p.IsEnabled)
	if err == pgx.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "llm provider not found", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "scan llm provider", err)
	}
	return &p, nil
}
