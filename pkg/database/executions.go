package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// CreateWorkflowRun starts a new run of a workflow.
func (c *Client) CreateWorkflowRun(ctx context.Context, workflowID string) (*WorkflowRun, error) {
	row := c.pool.QueryRow(ctx, `
		INSERT INTO workflow_runs (id, workflow_id, status, started_at)
		VALUES ($1, $2, 'running', now())
		RETURNING id, workflow_id, status, error_message, started_at, completed_at, created_at, updated_at`,
		uuid.NewString(), workflowID)

	return scanWorkflowRun(row)
}

// GetWorkflowRun fetches a workflow run by id.
func (c *Client) GetWorkflowRun(ctx context.Context, id string) (*WorkflowRun, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, workflow_id, status, error_message, started_at, completed_at, created_at, updated_at
		FROM workflow_runs WHERE id = $1`, id)

	return scanWorkflowRun(row)
}

// FinalizeWorkflowRun marks a workflow run completed or failed. Called
// best-effort at the end of an orchestration — a failure here is logged by
// the caller, not propagated, since the orchestration's own terminal state
// has already been persisted by that point.
func (c *Client) FinalizeWorkflowRun(ctx context.Context, id, status string, errMsg *string) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE workflow_runs SET status = $2, error_message = $3, completed_at = now(), updated_at = now()
		WHERE id = $1`, id, status, errMsg)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "finalize workflow run", err)
	}
	return nil
}

// CreateAgentExecutionParams mirrors the agent_executions table's mutable
// column set at creation time.
type CreateAgentExecutionParams struct {
	AgentID           string
	WorkflowRunID     string
	ParentExecutionID *string
	InputText         *string
}

// CreateAgentExecution starts a new execution record for an agent,
// sub-agent or orchestrator alike — the row shape is identical.
// ParentExecutionID is an optional link to a parent execution; the
// execute_sub_agent path (services.ExecuteAgent) does not set it.
func (c *Client) CreateAgentExecution(ctx context.Context, p CreateAgentExecutionParams) (*AgentExecution, error) {
	row := c.pool.QueryRow(ctx, `
		INSERT INTO agent_executions (id, agent_id, workflow_run_id, parent_execution_id, status, input_text, started_at)
		VALUES ($1, $2, $3, $4, 'running', $5, now())
		RETURNING id, agent_id, workflow_run_id, parent_execution_id, status, input_text, output_text, token_usage, duration_ms, error_message, started_at, completed_at, created_at, updated_at`,
		uuid.NewString(), p.AgentID, p.WorkflowRunID, p.ParentExecutionID, p.InputText)

	return scanAgentExecution(row)
}

// GetAgentExecution fetches an execution by id.
func (c *Client) GetAgentExecution(ctx context.Context, id string) (*AgentExecution, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, agent_id, workflow_run_id, parent_execution_id, status, input_text, output_text, token_usage, duration_ms, error_message, started_at, completed_at, created_at, updated_at
		FROM agent_executions WHERE id = $1`, id)

	return scanAgentExecution(row)
}

// FinalizeAgentExecution records the terminal state of an execution:
// output text, token usage, wall-clock duration and, on failure, the error
// that ended it.
func (c *Client) FinalizeAgentExecution(ctx context.Context, id, status string, outputText *string, tokenUsage map[string]any, durationMs int64, errMsg *string) error {
	var usageJSON []byte
	if tokenUsage != nil {
		var err error
		usageJSON, err = json.Marshal(tokenUsage)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "marshal token usage", err)
		}
	}

	_, err := c.pool.Exec(ctx, `
		UPDATE agent_executions
		SET status = $2, output_text = $3, token_usage = $4, duration_ms = $5, error_message = $6, completed_at = now(), updated_at = now()
		WHERE id = $1`, id, status, outputText, usageJSON, durationMs, errMsg)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "finalize agent execution", err)
	}
	return nil
}

// ListChildExecutions returns the executions whose parent_execution_id is
// parentExecutionID, oldest first. Sub-agent runs started through
// execute_sub_agent do not set that column, so they are not listed here.
func (c *Client) ListChildExecutions(ctx context.Context, parentExecutionID string) ([]*AgentExecution, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, agent_id, workflow_run_id, parent_execution_id, status, input_text, output_text, token_usage, duration_ms, error_message, started_at, completed_at, created_at, updated_at
		FROM agent_executions WHERE parent_execution_id = $1 ORDER BY created_at ASC`, parentExecutionID)
	if err != nil {
		return nil, fmt.Errorf("list child executions: %w", err)
	}
	defer rows.Close()

	var out []*AgentExecution
	for rows.Next() {
		e, err := scanAgentExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanWorkflowRun(row rowScanner) (*WorkflowRun, error) {
	var r WorkflowRun
	err := row.Scan(&r.ID, &r.WorkflowID, &r.Status, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "workflow run not found", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "scan workflow run", err)
	}
	return &r, nil
}

func scanAgentExecution(row rowScanner) (*AgentExecution, error) {
	var e AgentExecution
	var usageJSON []byte
	err := row.Scan(&e.ID, &e.AgentID, &e.WorkflowRunID, &e.ParentExecutionID, &e.Status, &e.InputText, &e.OutputText,
		&usageJSON, &e.DurationMs, &e.ErrorMessage, &e.StartedAt, &e.CompletedAt, &e.CreatedAt, &e.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "agent execution not found", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "scan agent execution", err)
	}
	if len(usageJSON) > 0 {
		if err := json.Unmarshal(usageJSON, &e.TokenUsage); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "unmarshal token usage", err)
		}
	}
	return &e, nil
}
