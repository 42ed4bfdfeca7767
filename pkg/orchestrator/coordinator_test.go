package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/codeready-toolchain/orchestrator-core/pkg/bus"
	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
	"github.com/codeready-toolchain/orchestrator-core/pkg/llm"
	"github.com/codeready-toolchain/orchestrator-core/pkg/services"
)

// newTestClient mirrors pkg/database's own testcontainers helper — every
// package that needs a real Postgres for its tests brings one up the same
// way rather than sharing test-only exports across package boundaries.
func newTestClient(t *testing.T) *database.Client {
	t.Helper()
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

	client, err := database.NewClient(ctx, database.Config{DatabaseURL: connStr, MaxOpenConns: 10, MaxIdleConns: 2})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func seedAgent(t *testing.T, db *database.Client, model string) (*database.Workflow, *database.Agent) {
	t.Helper()
	ctx := context.Background()

	workflow, err := db.CreateWorkflow(ctx, "user-1", "wf", nil)
	require.NoError(t, err)

	var providerID string
	err = db.Pool().QueryRow(ctx, `
		INSERT INTO llm_providers (id, name, display_name) VALUES (gen_random_uuid(), 'fake', 'Fake') RETURNING id`).Scan(&providerID)
	if err != nil {
		providerID = "00000000-0000-0000-0000-000000000099"
		_, err = db.Pool().Exec(ctx, `INSERT INTO llm_providers (id, name, display_name) VALUES ($1, 'fake', 'Fake')`, providerID)
		require.NoError(t, err)
	}

	agent, err := db.CreateAgent(ctx, database.CreateAgentParams{
		WorkflowID:    workflow.ID,
		LLMProviderID: providerID,
		Name:          "orchestrator",
		Model:         model,
	})
	require.NoError(t, err)

	return workflow, agent
}

func waitForTerminal(t *testing.T, db *database.Client, id string) *database.OrchestrationRun {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		run, err := db.GetOrchestrationRun(context.Background(), id)
		require.NoError(t, err)
		if run.Status == "completed" || run.Status == "failed" || run.Status == "awaiting_approval" || run.Status == "rejected" {
			return run
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("orchestration run %s did not reach a terminal state in time", id)
	return nil
}

func textResponse(text string) llm.CompletionResponse {
	return llm.CompletionResponse{
		StopReason: llm.StopEndTurn,
		Message:    llm.ConversationMessage{Role: llm.RoleAssistant, Content: []llm.ContentBlock{{Type: llm.BlockText, Text: text}}},
	}
}

func toolUseResponse(id, name string, input map[string]any) llm.CompletionResponse {
	return llm.CompletionResponse{
		StopReason: llm.StopToolUse,
		Message: llm.ConversationMessage{Role: llm.RoleAssistant, Content: []llm.ContentBlock{
			{Type: llm.BlockToolUse, ToolUseID: id, Name: name, Input: input},
		}},
	}
}

func TestCoordinatorStartAutomaticCompletesOnEndTurn(t *testing.T) {
	db := newTestClient(t)
	workflow, agent := seedAgent(t, db, "fake-model")

	eventBus := bus.New()
	registry := llm.NewRegistry()
	registry.Register(&llm.FakeProvider{ProviderName: "fake", Responses: []llm.CompletionResponse{
		textResponse("all done"),
	}})
	executor := services.NewExecutionService(db, registry, eventBus)
	coord := NewCoordinator(db, eventBus, registry, executor, 20)

	run, err := coord.Start(context.Background(), StartRequest{
		WorkflowID: workflow.ID, OrchestratorAgentID: agent.ID, Mode: "automatic", Input: "do the thing",
	})
	require.NoError(t, err)
	assert.Equal(t, "running", run.Status)

	final := waitForTerminal(t, db, run.ID)
	assert.Equal(t, "completed", final.Status)
	require.NotNil(t, final.FinalOutput)
	assert.Equal(t, "all done", *final.FinalOutput)
}

func TestCoordinatorFailsClosedOnIterationCap(t *testing.T) {
	db := newTestClient(t)
	workflow, agent := seedAgent(t, db, "fake-model")

	eventBus := bus.New()
	sub := eventBus.SubscribeWithCapacity(16)
	t.Cleanup(sub.Unsubscribe)

	registry := llm.NewRegistry()
	// Always propose a tool call — three iterations, each invoking
	// create_sub_agent, which a 3-iteration cap should never let finish.
	responses := make([]llm.CompletionResponse, 0, 3)
	for i := 0; i < 3; i++ {
		responses = append(responses, toolUseResponse("t1", "create_sub_agent", map[string]any{
			"name": "helper", "description": "d", "system_prompt": "p",
		}))
	}
	registry.Register(&llm.FakeProvider{ProviderName: "fake", Responses: responses})
	executor := services.NewExecutionService(db, registry, eventBus)
	coord := NewCoordinator(db, eventBus, registry, executor, 3)

	run, err := coord.Start(context.Background(), StartRequest{
		WorkflowID: workflow.ID, OrchestratorAgentID: agent.ID, Mode: "automatic", Input: "loop forever",
	})
	require.NoError(t, err)

	final := waitForTerminal(t, db, run.ID)
	assert.Equal(t, "failed", final.Status)
	require.NotNil(t, final.ErrorMessage)
	assert.Contains(t, *final.ErrorMessage, "maximum iterations")

	var sawFailedEvent bool
	for {
		select {
		case env := <-sub.Receive():
			if env.Event.Type == bus.EventOrchestratorFailed && env.Event.OrchestrationRunID == run.ID {
				sawFailedEvent = true
			}
		default:
			assert.True(t, sawFailedEvent, "expected an OrchestratorFailed event")
			return
		}
	}
}

func TestCoordinatorApprovalModeSuspendsThenResumes(t *testing.T) {
	db := newTestClient(t)
	workflow, agent := seedAgent(t, db, "fake-model")

	eventBus := bus.New()
	registry := llm.NewRegistry()
	registry.Register(&llm.FakeProvider{ProviderName: "fake", Responses: []llm.CompletionResponse{
		toolUseResponse("t1", "create_sub_agent", map[string]any{"name": "helper", "description": "d", "system_prompt": "p"}),
		textResponse("wrapped up after approval"),
	}})
	executor := services.NewExecutionService(db, registry, eventBus)
	coord := NewCoordinator(db, eventBus, registry, executor, 20)

	run, err := coord.Start(context.Background(), StartRequest{
		WorkflowID: workflow.ID, OrchestratorAgentID: agent.ID, Mode: "approval", Input: "needs review",
	})
	require.NoError(t, err)

	suspended := waitForTerminal(t, db, run.ID)
	assert.Equal(t, "awaiting_approval", suspended.Status)
	require.NotNil(t, suspended.PlanJSON)

	approved, err := coord.Approve(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "running", approved.Status)

	final := waitForTerminal(t, db, run.ID)
	assert.Equal(t, "completed", final.Status)
	require.NotNil(t, final.FinalOutput)
	assert.Equal(t, "wrapped up after approval", *final.FinalOutput)
}

func TestCoordinatorRejectEndsRunWithoutExecutingPlan(t *testing.T) {
	db := newTestClient(t)
	workflow, agent := seedAgent(t, db, "fake-model")

	eventBus := bus.New()
	registry := llm.NewRegistry()
	registry.Register(&llm.FakeProvider{ProviderName: "fake", Responses: []llm.CompletionResponse{
		toolUseResponse("t1", "create_sub_agent", map[string]any{"name": "helper", "description": "d", "system_prompt": "p"}),
	}})
	executor := services.NewExecutionService(db, registry, eventBus)
	coord := NewCoordinator(db, eventBus, registry, executor, 20)

	run, err := coord.Start(context.Background(), StartRequest{
		WorkflowID: workflow.ID, OrchestratorAgentID: agent.ID, Mode: "approval", Input: "needs review",
	})
	require.NoError(t, err)
	waitForTerminal(t, db, run.ID)

	rejected, err := coord.Reject(context.Background(), run.ID, "not needed")
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)

	exec, err := db.GetAgentExecution(context.Background(), rejected.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, "failed", exec.Status)
}
