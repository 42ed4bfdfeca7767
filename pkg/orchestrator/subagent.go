package orchestrator

import (
	"context"

	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
	"github.com/codeready-toolchain/orchestrator-core/pkg/services"
	"github.com/codeready-toolchain/orchestrator-core/pkg/tools"
)

// subAgentRunner implements tools.SubAgentRunner on top of the Persistence
// Gateway and ExecutionService, so the three orchestrator-intrinsic tools
// never need to know about either directly.
type subAgentRunner struct {
	db        *database.Client
	executor  *services.ExecutionService
	llmProvID string // the orchestrator agent's own provider, reused for sub-agents it spawns
	model     string // the orchestrator agent's own model, reused the same way
}

func newSubAgentRunner(db *database.Client, executor *services.ExecutionService, llmProviderID, model string) tools.SubAgentRunner {
	return &subAgentRunner{db: db, executor: executor, llmProvID: llmProviderID, model: model}
}

func (r *subAgentRunner) CreateSubAgent(ctx context.Context, workflowID, name, description, systemPrompt string) (string, error) {
	desc := description
	prompt := systemPrompt
	agent, err := r.db.CreateAgent(ctx, database.CreateAgentParams{
		WorkflowID:    workflowID,
		LLMProviderID: r.llmProvID,
		Name:          name,
		Description:   &desc,
		SystemPrompt:  &prompt,
		Model:         r.model,
		Temperature:   0.7,
		MaxTokens:     2048,
	})
	if err != nil {
		return "", err
	}
	return agent.ID, nil
}

func (r *subAgentRunner) ExecuteSubAgent(ctx context.Context, agentID, input string) (tools.SubAgentExecutionResult, error) {
	exec, err := r.executor.ExecuteAgent(ctx, services.ExecuteAgentInput{AgentID: agentID, Input: input})
	if err != nil {
		return tools.SubAgentExecutionResult{}, err
	}
	return toSubAgentResult(exec), nil
}

func (r *subAgentRunner) GetSubAgentResult(ctx context.Context, executionID string) (tools.SubAgentExecutionResult, error) {
	exec, err := r.executor.GetExecution(ctx, executionID)
	if err != nil {
		return tools.SubAgentExecutionResult{}, err
	}
	return toSubAgentResult(exec), nil
}

func toSubAgentResult(exec *database.AgentExecution) tools.SubAgentExecutionResult {
	res := tools.SubAgentExecutionResult{
		ExecutionID: exec.ID,
		AgentID:     exec.AgentID,
		Status:      exec.Status,
	}
	if exec.OutputText != nil {
		res.OutputText = *exec.OutputText
	}
	if exec.ErrorMessage != nil {
		res.ErrorMessage = *exec.ErrorMessage
	}
	if exec.DurationMs != nil {
		res.DurationMs = *exec.DurationMs
	}
	return res
}
