package database

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// StartOrchestrationParams describes a new orchestration run.
type StartOrchestrationParams struct {
	WorkflowID          string
	OrchestratorAgentID string
	Mode                string // "automatic" or "approval"
	InputText           *string
}

// StartOrchestrationResult bundles the three rows an orchestration start
// creates together.
type StartOrchestrationResult struct {
	WorkflowRun      *WorkflowRun
	Execution        *AgentExecution
	OrchestrationRun *OrchestrationRun
}

// StartOrchestration creates the workflow_run, its orchestrator
// agent_execution, and the orchestration_run that ties them together in a
// single transaction, so a caller never observes one without the others.
// The caller publishes the WorkflowRunStarted/AgentExecutionStarted events
// and spawns the engine loop only after this commits.
func (c *Client) StartOrchestration(ctx context.Context, p StartOrchestrationParams) (*StartOrchestrationResult, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "begin start-orchestration tx", err)
	}
	defer tx.Rollback(ctx)

	runRow := tx.QueryRow(ctx, `
		INSERT INTO workflow_runs (id, workflow_id, status, started_at)
		VALUES ($1, $2, 'running', now())
		RETURNING id, workflow_id, status, error_message, started_at, completed_at, created_at, updated_at`,
		uuid.NewString(), p.WorkflowID)
	run, err := scanWorkflowRun(runRow)
	if err != nil {
		return nil, err
	}

	execRow := tx.QueryRow(ctx, `
		INSERT INTO agent_executions (id, agent_id, workflow_run_id, status, input_text, started_at)
		VALUES ($1, $2, $3, 'running', $4, now())
		RETURNING id, agent_id, workflow_run_id, parent_execution_id, status, input_text, output_text, token_usage, duration_ms, error_message, started_at, completed_at, created_at, updated_at`,
		uuid.NewString(), p.OrchestratorAgentID, run.ID, p.InputText)
	exec, err := scanAgentExecution(execRow)
	if err != nil {
		return nil, err
	}

	orchRow := tx.QueryRow(ctx, `
		INSERT INTO orchestration_runs (id, orchestrator_agent_id, workflow_run_id, execution_id, mode, status)
		VALUES ($1, $2, $3, $4, $5, 'running')
		RETURNING id, orchestrator_agent_id, workflow_run_id, execution_id, mode, status, plan_json, messages_json, final_output, error_message, created_at, updated_at`,
		uuid.NewString(), p.OrchestratorAgentID, run.ID, exec.ID, p.Mode)
	orch, err := scanOrchestrationRun(orchRow)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "commit start-orchestration tx", err)
	}

	return &StartOrchestrationResult{WorkflowRun: run, Execution: exec, OrchestrationRun: orch}, nil
}

// GetOrchestrationRun fetches an orchestration run by id.
func (c *Client) GetOrchestrationRun(ctx context.Context, id string) (*OrchestrationRun, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, orchestrator_agent_id, workflow_run_id, execution_id, mode, status, plan_json, messages_json, final_output, error_message, created_at, updated_at
		FROM orchestration_runs WHERE id = $1`, id)

	return scanOrchestrationRun(row)
}

// SaveProposedPlanAndSuspend persists the pending tool_use blocks and the
// conversation so far, and flips the run to awaiting_approval. The engine
// loop returns to its caller immediately after this call.
func (c *Client) SaveProposedPlanAndSuspend(ctx context.Context, id string, planJSON map[string]any, messagesJSON []any) error {
	planBytes, err := json.Marshal(planJSON)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "marshal plan", err)
	}
	msgBytes, err := json.Marshal(messagesJSON)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "marshal messages", err)
	}

	tag, err := c.pool.Exec(ctx, `
		UPDATE orchestration_runs
		SET status = 'awaiting_approval', plan_json = $2, messages_json = $3, updated_at = now()
		WHERE id = $1 AND status = 'running'`, id, planBytes, msgBytes)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "save proposed plan", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeInvalidInput, "orchestration run is not running")
	}
	return nil
}

// ApproveAndResume transitions an awaiting_approval run back to running so
// the engine can re-extract the pending tool_use blocks from the last
// assistant message in the stored conversation and continue the loop.
func (c *Client) ApproveAndResume(ctx context.Context, id string) (*OrchestrationRun, error) {
	row := c.pool.QueryRow(ctx, `
		UPDATE orchestration_runs SET status = 'running', updated_at = now()
		WHERE id = $1 AND status = 'awaiting_approval'
		RETURNING id, orchestrator_agent_id, workflow_run_id, execution_id, mode, status, plan_json, messages_json, final_output, error_message, created_at, updated_at`,
		id)

	orch, err := scanOrchestrationRun(row)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "orchestration run is not awaiting approval")
	}
	return orch, err
}

// RejectOrchestration marks an awaiting_approval run as rejected without
// executing its pending plan.
func (c *Client) RejectOrchestration(ctx context.Context, id, reason string) (*OrchestrationRun, error) {
	row := c.pool.QueryRow(ctx, `
		UPDATE orchestration_runs SET status = 'rejected', error_message = $2, updated_at = now()
		WHERE id = $1 AND status = 'awaiting_approval'
		RETURNING id, orchestrator_agent_id, workflow_run_id, execution_id, mode, status, plan_json, messages_json, final_output, error_message, created_at, updated_at`,
		id, reason)

	orch, err := scanOrchestrationRun(row)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "orchestration run is not awaiting approval")
	}
	return orch, err
}

// UpdateMessagesJSON persists the running conversation snapshot without
// changing status, used between loop iterations so a crash mid-run still
// leaves the latest turn recoverable.
func (c *Client) UpdateMessagesJSON(ctx context.Context, id string, messagesJSON []any) error {
	msgBytes, err := json.Marshal(messagesJSON)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "marshal messages", err)
	}
	_, err = c.pool.Exec(ctx, `
		UPDATE orchestration_runs SET messages_json = $2, updated_at = now() WHERE id = $1`, id, msgBytes)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "update messages json", err)
	}
	return nil
}

// FinalizeOrchestration records the terminal state of a run: completed
// with its final output, or failed with an error. Best-effort — callers
// log rather than propagate a failure here, since the execution/workflow
// run rows have already recorded the authoritative terminal state.
func (c *Client) FinalizeOrchestration(ctx context.Context, id, status string, finalOutput, errMsg *string) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE orchestration_runs SET status = $2, final_output = $3, error_message = $4, updated_at = now()
		WHERE id = $1`, id, status, finalOutput, errMsg)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "finalize orchestration run", err)
	}
	return nil
}

func scanOrchestrationRun(row rowScanner) (*OrchestrationRun, error) {
	var o OrchestrationRun
	var planJSON, messagesJSON []byte
	err := row.Scan(&o.ID, &o.OrchestratorAgentID, &o.WorkflowRunID, &o.ExecutionID, &o.Mode, &o.Status,
		&planJSON, &messagesJSON, &o.FinalOutput, &o.ErrorMessage, &o.CreatedAt, &o.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "orchestration run not found", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "scan orchestration run", err)
	}
	if len(planJSON) > 0 {
		if err := json.Unmarshal(planJSON, &o.PlanJSON); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "unmarshal plan json", err)
		}
	}
	if len(messagesJSON) > 0 {
		if err := json.Unmarshal(messagesJSON, &o.MessagesJSON); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "unmarshal messages json", err)
		}
	}
	return &o, nil
}
