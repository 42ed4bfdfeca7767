package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// CreateAgentParams mirrors the agents table's mutable column set.
type CreateAgentParams struct {
	WorkflowID    string
	LLMProviderID string
	Name          string
	Description   *string
	SystemPrompt  *string
	Model         string
	Temperature   float64
	MaxTokens     int
}

// CreateAgent inserts a new agent under a workflow. Sub-agents created by
// the orchestrator's create_sub_agent tool go through this same path,
// scoped to the orchestration's workflow.
func (c *Client) CreateAgent(ctx context.Context, p CreateAgentParams) (*Agent, error) {
	if p.Temperature == 0 {
		p.Temperature = 0.7
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 4096
	}

	row := c.pool.QueryRow(ctx, `
		INSERT INTO agents (id, workflow_id, llm_provider_id, name, description, system_prompt, model, temperature, max_tokens)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, workflow_id, llm_provider_id, name, description, system_prompt, model, temperature, max_tokens, is_active, created_at, updated_at`,
		uuid.NewString(), p.WorkflowID, p.LLMProviderID, p.Name, p.Description, p.SystemPrompt, p.Model, p.Temperature, p.MaxTokens)

	return scanAgent(row)
}

// GetAgent fetches an agent by id.
func (c *Client) GetAgent(ctx context.Context, id string) (*Agent, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, workflow_id, llm_provider_id, name, description, system_prompt, model, temperature, max_tokens, is_active, created_at, updated_at
		FROM agents WHERE id = $1`, id)

	return scanAgent(row)
}

// ListAgents returns agents belonging to a workflow.
func (c *Client) ListAgents(ctx context.Context, workflowID string) ([]*Agent, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, workflow_id, llm_provider_id, name, description, system_prompt, model, temperature, max_tokens, is_active, created_at, updated_at
		FROM agents WHERE workflow_id = $1 ORDER BY created_at ASC`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []*Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgent(row rowScanner) (*Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.WorkflowID, &a.LLMProviderID, &a.Name, &a.Description, &a.SystemPrompt,
		&a.Model, &a.Temperature, &a.MaxTokens, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "agent not found", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "scan agent", err)
	}
	return &a, nil
}
