package tools

import (
	"context"
	"fmt"
)

// Orchestrator-intrinsic tool names, always registered regardless of an
// agent's own tool permissions.
const (
	ToolCreateSubAgent    = "create_sub_agent"
	ToolExecuteSubAgent   = "execute_sub_agent"
	ToolGetSubAgentResult = "get_sub_agent_result"
)

// SubAgentRunner is the dependency the three intrinsic tools call into. It
// is implemented at the orchestrator layer (pkg/orchestrator) and injected
// here to avoid pkg/tools depending on pkg/orchestrator/pkg/database —
// the Tool Loop Engine depends on the Tool Registry, not the reverse.
type SubAgentRunner interface {
	// CreateSubAgent persists a new Agent row owned by workflowID and
	// returns its id.
	CreateSubAgent(ctx context.Context, workflowID, name, description, systemPrompt string) (agentID string, err error)

	// ExecuteSubAgent runs agentID against input and blocks until that
	// execution terminates (success or failure), per the synchronous
	// execute_sub_agent contract.
	ExecuteSubAgent(ctx context.Context, agentID, input string) (SubAgentExecutionResult, error)

	// GetSubAgentResult looks up a previously completed or still-running
	// execution by id.
	GetSubAgentResult(ctx context.Context, executionID string) (SubAgentExecutionResult, error)
}

// SubAgentExecutionResult is the outcome surfaced back to the orchestrator
// LLM through a tool_result block.
type SubAgentExecutionResult struct {
	ExecutionID  string
	AgentID      string
	Status       string
	OutputText   string
	ErrorMessage string
	DurationMs   int64
}

// createSubAgentTool implements create_sub_agent. It is bound to the
// workflow of the orchestration run that registers it — sub-agents are
// always owned by that workflow, never by the orchestration run itself.
type createSubAgentTool struct {
	runner     SubAgentRunner
	workflowID string
}

// NewCreateSubAgentTool returns the create_sub_agent intrinsic tool, scoped
// to workflowID for the lifetime of one orchestration run.
func NewCreateSubAgentTool(runner SubAgentRunner, workflowID string) Tool {
	return &createSubAgentTool{runner: runner, workflowID: workflowID}
}

func (t *createSubAgentTool) Name() string         { return ToolCreateSubAgent }
func (t *createSubAgentTool) Category() Category   { return CategoryComposite }

func (t *createSubAgentTool) Definition() Definition {
	return Definition{
		Name:        ToolCreateSubAgent,
		Description: "Create a new sub-agent to handle a specific subtask. The sub-agent will be created with its own panel on the dashboard.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":          map[string]any{"type": "string", "description": "A short descriptive name for the sub-agent (e.g. 'Researcher', 'Code Generator')"},
				"description":   map[string]any{"type": "string", "description": "Description of what this sub-agent should do"},
				"system_prompt": map[string]any{"type": "string", "description": "System prompt for the sub-agent that defines its role and behavior"},
			},
			"required": []string{"name", "description", "system_prompt"},
		},
	}
}

func (t *createSubAgentTool) Execute(ctx context.Context, input map[string]any, _ SecurityContext) Result {
	name := stringField(input, "name", "Sub Agent")
	description := stringField(input, "description", "")
	systemPrompt := stringField(input, "system_prompt", "")

	agentID, err := t.runner.CreateSubAgent(ctx, t.workflowID, name, description, systemPrompt)
	if err != nil {
		return Error(fmt.Sprintf("failed to create sub-agent: %v", err))
	}

	return Ok(fmt.Sprintf(`{"agent_id":%q,"name":%q,"status":"created"}`, agentID, name))
}

// executeSubAgentTool implements execute_sub_agent. It is deliberately
// synchronous: the tool call blocks the calling loop iteration until the
// sub-agent execution finishes, matching the original implementation's
// inline `execution_service::execute_agent(...).await` call.
type executeSubAgentTool struct {
	runner SubAgentRunner
}

// NewExecuteSubAgentTool returns the execute_sub_agent intrinsic tool.
func NewExecuteSubAgentTool(runner SubAgentRunner) Tool {
	return &executeSubAgentTool{runner: runner}
}

func (t *executeSubAgentTool) Name() string       { return ToolExecuteSubAgent }
func (t *executeSubAgentTool) Category() Category { return CategoryComposite }

func (t *executeSubAgentTool) Definition() Definition {
	return Definition{
		Name:        ToolExecuteSubAgent,
		Description: "Execute a sub-agent with a specific input prompt. The agent must have been created first with create_sub_agent.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent_id": map[string]any{"type": "string", "description": "The id of the sub-agent to execute"},
				"input":    map[string]any{"type": "string", "description": "The input prompt to send to the sub-agent"},
			},
			"required": []string{"agent_id", "input"},
		},
	}
}

func (t *executeSubAgentTool) Execute(ctx context.Context, input map[string]any, _ SecurityContext) Result {
	agentID := stringField(input, "agent_id", "")
	if agentID == "" {
		return Error("missing 'agent_id' parameter")
	}
	prompt := stringField(input, "input", "")

	result, err := t.runner.ExecuteSubAgent(ctx, agentID, prompt)
	if err != nil {
		return Error(fmt.Sprintf("execution failed: %v", err))
	}

	return Ok(fmt.Sprintf(`{"execution_id":%q,"status":%q,"output":%q}`, result.ExecutionID, result.Status, result.OutputText))
}

// getSubAgentResultTool implements get_sub_agent_result.
type getSubAgentResultTool struct {
	runner SubAgentRunner
}

// NewGetSubAgentResultTool returns the get_sub_agent_result intrinsic tool.
func NewGetSubAgentResultTool(runner SubAgentRunner) Tool {
	return &getSubAgentResultTool{runner: runner}
}

func (t *getSubAgentResultTool) Name() string       { return ToolGetSubAgentResult }
func (t *getSubAgentResultTool) Category() Category { return CategoryComposite }

func (t *getSubAgentResultTool) Definition() Definition {
	return Definition{
		Name:        ToolGetSubAgentResult,
		Description: "Get the execution result of a sub-agent. Use this after executing a sub-agent to retrieve its output.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"execution_id": map[string]any{"type": "string", "description": "The id of the agent execution to get results from"},
			},
			"required": []string{"execution_id"},
		},
	}
}

func (t *getSubAgentResultTool) Execute(ctx context.Context, input map[string]any, _ SecurityContext) Result {
	executionID := stringField(input, "execution_id", "")
	if executionID == "" {
		return Error("missing 'execution_id' parameter")
	}

	result, err := t.runner.GetSubAgentResult(ctx, executionID)
	if err != nil {
		return Error(fmt.Sprintf("failed to get result: %v", err))
	}

	return Ok(fmt.Sprintf(`{"execution_id":%q,"agent_id":%q,"status":%q,"output":%q,"error":%q,"duration_ms":%d}`,
		result.ExecutionID, result.AgentID, result.Status, result.OutputText, result.ErrorMessage, result.DurationMs))
}

func stringField(input map[string]any, key, fallback string) string {
	if v, ok := input[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}
