package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// UpsertToolPermission enables/disables a tool for an agent, creating the
// row on first use. config carries tool-specific SecurityContext overrides.
func (c *Client) UpsertToolPermission(ctx context.Context, agentID, toolName string, isEnabled bool, config map[string]any) (*ToolPermission, error) {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "marshal tool permission config", err)
	}

	row := c.pool.QueryRow(ctx, `
		INSERT INTO tool_permissions (id, agent_id, tool_name, is_enabled, config)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (agent_id, tool_name)
		DO UPDATE SET is_enabled = EXCLUDED.is_enabled, config = EXCLUDED.config, updated_at = now()
		RETURNING id, agent_id, tool_name, is_enabled, config, created_at, updated_at`,
		uuid.NewString(), agentID, toolName, isEnabled, configJSON)

	return scanToolPermission(row)
}

// ListToolPermissions returns every tool permission row for an agent.
func (c *Client) ListToolPermissions(ctx context.Context, agentID string) ([]*ToolPermission, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, agent_id, tool_name, is_enabled, config, created_at, updated_at
		FROM tool_permissions WHERE agent_id = $1 ORDER BY tool_name ASC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("list tool permissions: %w", err)
	}
	defer rows.Close()

	var out []*ToolPermission
	for rows.Next() {
		tp, err := scanToolPermission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

// IsToolEnabled reports whether agentID has toolName enabled. Tools with no
// row are enabled by default — permissions are an opt-out mechanism.
func (c *Client) IsToolEnabled(ctx context.Context, agentID, toolName string) (bool, error) {
	var isEnabled bool
	err := c.pool.QueryRow(ctx, `
		SELECT is_enabled FROM tool_permissions WHERE agent_id = $1 AND tool_name = $2`,
		agentID, toolName).Scan(&isEnabled)
	if err == pgx.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeDatabaseError, "check tool permission", err)
	}
	return isEnabled, nil
}

func scanToolPermission(row rowScanner) (*ToolPermission, error) {
	var tp ToolPermission
	var configJSON []byte
	err := row.Scan(&tp.ID, &tp.AgentID, &tp.ToolName, &tp.IsEnabled, &configJSON, &tp.CreatedAt, &tp.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "tool permission not found", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "scan tool permission", err)
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &tp.Config); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "unmarshal tool permission config", err)
		}
	}
	return &tp, nil
}
