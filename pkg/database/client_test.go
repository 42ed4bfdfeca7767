package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestClient brings up a throwaway Postgres container, runs this
// package's embedded migrations against it, and returns a ready Client.
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{
		DatabaseURL:  connStr,
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)

	t.Cleanup(client.Close)

	return client
}

func TestClientHealth(t *testing.T) {
	client := newTestClient(t)

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Greater(t, health.MaxConns, int32(0))
}

func TestStartOrchestrationCreatesAllThreeRowsTogether(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	workflow, err := client.CreateWorkflow(ctx, "user-1", "incident-response", nil)
	require.NoError(t, err)

	provider := seedLLMProvider(t, client)
	agent, err := client.CreateAgent(ctx, CreateAgentParams{
		WorkflowID:    workflow.ID,
		LLMProviderID: provider,
		Name:          "orchestrator",
		Model:         "claude-sonnet-4",
	})
	require.NoError(t, err)

	input := "diagnose the failing deployment"
	result, err := client.StartOrchestration(ctx, StartOrchestrationParams{
		WorkflowID:          workflow.ID,
		OrchestratorAgentID: agent.ID,
		Mode:                "automatic",
		InputText:           &input,
	})
	require.NoError(t, err)

	assert.Equal(t, "running", result.WorkflowRun.Status)
	assert.Equal(t, "running", result.Execution.Status)
	assert.Equal(t, "running", result.OrchestrationRun.Status)
	assert.Equal(t, result.Execution.ID, result.OrchestrationRun.ExecutionID)
	assert.Equal(t, result.WorkflowRun.ID, result.Execution.WorkflowRunID)
}

func TestSaveProposedPlanAndSuspendRequiresRunningStatus(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	workflow, err := client.CreateWorkflow(ctx, "user-1", "wf", nil)
	require.NoError(t, err)
	provider := seedLLMProvider(t, client)
	agent, err := client.CreateAgent(ctx, CreateAgentParams{WorkflowID: workflow.ID, LLMProviderID: provider, Name: "a", Model: "m"})
	require.NoError(t, err)
	result, err := client.StartOrchestration(ctx, StartOrchestrationParams{
		WorkflowID: workflow.ID, OrchestratorAgentID: agent.ID, Mode: "approval",
	})
	require.NoError(t, err)

	plan := map[string]any{"tool_use": []any{map[string]any{"id": "t1", "name": "execute_sub_agent"}}}
	messages := []any{map[string]any{"role": "assistant"}}
	require.NoError(t, client.SaveProposedPlanAndSuspend(ctx, result.OrchestrationRun.ID, plan, messages))

	got, err := client.GetOrchestrationRun(ctx, result.OrchestrationRun.ID)
	require.NoError(t, err)
	assert.Equal(t, "awaiting_approval", got.Status)
	assert.NotNil(t, got.PlanJSON)

	// Already suspended: a second suspend attempt must fail instead of
	// silently clobbering the pending plan.
	err = client.SaveProposedPlanAndSuspend(ctx, result.OrchestrationRun.ID, plan, messages)
	assert.Error(t, err)

	resumed, err := client.ApproveAndResume(ctx, result.OrchestrationRun.ID)
	require.NoError(t, err)
	assert.Equal(t, "running", resumed.Status)
}

func TestAppendMessageAssignsIncrementingSequenceOrder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	workflow, err := client.CreateWorkflow(ctx, "user-1", "wf", nil)
	require.NoError(t, err)
	provider := seedLLMProvider(t, client)
	agent, err := client.CreateAgent(ctx, CreateAgentParams{WorkflowID: workflow.ID, LLMProviderID: provider, Name: "a", Model: "m"})
	require.NoError(t, err)
	run, err := client.CreateWorkflowRun(ctx, workflow.ID)
	require.NoError(t, err)
	exec, err := client.CreateAgentExecution(ctx, CreateAgentExecutionParams{AgentID: agent.ID, WorkflowRunID: run.ID})
	require.NoError(t, err)

	m1, err := client.AppendMessage(ctx, exec.ID, "user", []any{map[string]any{"type": "text", "text": "hi"}})
	require.NoError(t, err)
	m2, err := client.AppendMessage(ctx, exec.ID, "assistant", []any{map[string]any{"type": "text", "text": "hello"}})
	require.NoError(t, err)

	assert.Equal(t, 0, m1.SequenceOrder)
	assert.Equal(t, 1, m2.SequenceOrder)

	all, err := client.ListMessages(ctx, exec.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, m1.ID, all[0].ID)
}

func TestIsToolEnabledDefaultsTrueWithNoRow(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	workflow, err := client.CreateWorkflow(ctx, "user-1", "wf", nil)
	require.NoError(t, err)
	provider := seedLLMProvider(t, client)
	agent, err := client.CreateAgent(ctx, CreateAgentParams{WorkflowID: workflow.ID, LLMProviderID: provider, Name: "a", Model: "m"})
	require.NoError(t, err)

	enabled, err := client.IsToolEnabled(ctx, agent.ID, "shell_exec")
	require.NoError(t, err)
	assert.True(t, enabled)

	_, err = client.UpsertToolPermission(ctx, agent.ID, "shell_exec", false, nil)
	require.NoError(t, err)

	enabled, err = client.IsToolEnabled(ctx, agent.ID, "shell_exec")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func seedLLMProvider(t *testing.T, client *Client) string {
	t.Helper()
	var id string
	err := client.pool.QueryRow(context.Background(), `
		INSERT INTO llm_providers (id, name, display_name)
		VALUES (gen_random_uuid(), 'anthropic', 'Anthropic') RETURNING id`).Scan(&id)
	if err != nil {
		// gen_random_uuid() needs pgcrypto; fall back to a fixed id.
		id = "00000000-0000-0000-0000-000000000001"
		_, err = client.pool.Exec(context.Background(), `
			INSERT INTO llm_providers (id, name, display_name) VALUES ($1, 'anthropic', 'Anthropic')`, id)
		require.NoError(t, err)
	}
	return id
}
