// Package orchestrator implements the Tool Loop Engine (component E) and
// Orchestration Coordinator (component F): the state machine that drives
// the orchestrator LLM through repeated tool calls, and the public
// start/approve/reject/get operations that manage its lifecycle.
package orchestrator

// RunContext carries everything one orchestration run's loop needs,
// collapsing what would otherwise be a long parameter list into a single
// value threaded through the engine and its helpers.
type RunContext struct {
	OrchestrationRunID  string
	ExecutionID         string
	WorkflowRunID       string
	OrchestratorAgentID string
	WorkflowID          string

	ProviderName string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int

	Mode string // "automatic" or "approval"
}
