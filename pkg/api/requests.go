package api

// CreateWorkflowRequest is the body for POST /api/workflows.
type CreateWorkflowRequest struct {
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// CreateAgentRequest is the body for POST /api/agents.
type CreateAgentRequest struct {
	WorkflowID    string  `json:"workflow_id"`
	LLMProviderID string  `json:"llm_provider_id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	SystemPrompt  *string `json:"system_prompt,omitempty"`
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature,omitempty"`
	MaxTokens     int     `json:"max_tokens,omitempty"`
}

// UpdateToolPermissionsRequest is the body for POST /api/tools/permissions.
type UpdateToolPermissionsRequest struct {
	AgentID string                        `json:"agent_id"`
	Tools   []UpdateToolPermissionEntry   `json:"tools"`
}

// UpdateToolPermissionEntry is one tool's permission setting within a
// batch update request.
type UpdateToolPermissionEntry struct {
	ToolName  string         `json:"tool_name"`
	IsEnabled bool           `json:"is_enabled"`
	Config    map[string]any `json:"config,omitempty"`
}

// OrchestrateRequest is the body for POST /api/orchestrate.
type OrchestrateRequest struct {
	WorkflowID          string `json:"workflow_id"`
	OrchestratorAgentID string `json:"orchestrator_agent_id"`
	Mode                string `json:"mode"` // "automatic" or "approval"
	Input               string `json:"input"`
}

// RejectOrchestrationRequest is the body for POST /api/orchestrate/:id/reject.
type RejectOrchestrationRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ExecuteAgentRequest is the body for POST /api/executions.
type ExecuteAgentRequest struct {
	AgentID string `json:"agent_id"`
	Input   string `json:"input"`
}
