package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
	"github.com/codeready-toolchain/orchestrator-core/pkg/bus"
	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
	"github.com/codeready-toolchain/orchestrator-core/pkg/llm"
)

// maxInputLength bounds request bodies the same way the orchestrator's
// entry point does, so a single agent invocation can't smuggle in an
// unbounded prompt.
const maxInputLength = 100_000

// ExecutionService runs a single, tool-free agent turn: one LLM completion
// against an agent's configured system prompt and model, recorded as a
// workflow_run + agent_execution + conversation. This is also what backs
// the orchestrator's execute_sub_agent tool — a sub-agent dispatch is
// exactly one of these runs, not a nested tool loop.
type ExecutionService struct {
	db       *database.Client
	registry *llm.Registry
	bus      *bus.Bus
}

// NewExecutionService creates a new ExecutionService.
func NewExecutionService(db *database.Client, registry *llm.Registry, eventBus *bus.Bus) *ExecutionService {
	if db == nil {
		panic("NewExecutionService: db must not be nil")
	}
	if registry == nil {
		panic("NewExecutionService: registry must not be nil")
	}
	if eventBus == nil {
		panic("NewExecutionService: eventBus must not be nil")
	}
	return &ExecutionService{db: db, registry: registry, bus: eventBus}
}

// ExecuteAgentInput is a request to run one agent turn.
type ExecuteAgentInput struct {
	AgentID string
	Input   string
}

// ExecuteAgent loads the agent and its provider, runs a single completion,
// and persists the full conversation and terminal state regardless of
// whether the call succeeded — a failed completion still produces a
// "failed" execution, not an error returned to an orchestrator tool caller
// that is merely reporting the outcome upstream.
func (s *ExecutionService) ExecuteAgent(ctx context.Context, in ExecuteAgentInput) (*database.AgentExecution, error) {
	if strings.TrimSpace(in.AgentID) == "" {
		return nil, NewValidationError("agent_id", "is required")
	}
	if len(in.Input) > maxInputLength {
		return nil, apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("input text too long (%d bytes), maximum is %d bytes", len(in.Input), maxInputLength))
	}

	agent, err := s.db.GetAgent(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}
	provider, err := s.db.GetLLMProvider(ctx, agent.LLMProviderID)
	if err != nil {
		return nil, err
	}

	workflowRun, err := s.db.CreateWorkflowRun(ctx, agent.WorkflowID)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(bus.Event{
		Type:          bus.EventWorkflowRunStarted,
		WorkflowRunID: workflowRun.ID,
	})

	inputCopy := in.Input
	execution, err := s.db.CreateAgentExecution(ctx, database.CreateAgentExecutionParams{
		AgentID:       agent.ID,
		WorkflowRunID: workflowRun.ID,
		InputText:     &inputCopy,
	})
	if err != nil {
		return nil, err
	}
	s.bus.Publish(bus.Event{
		Type:             bus.EventAgentExecutionStarted,
		WorkflowRunID:    workflowRun.ID,
		AgentExecutionID: execution.ID,
		AgentID:          agent.ID,
	})

	return s.runCompletion(ctx, agent, provider, workflowRun, execution, in.Input)
}

func (s *ExecutionService) runCompletion(ctx context.Context, agent *database.Agent, provider *database.LLMProvider,
	workflowRun *database.WorkflowRun, execution *database.AgentExecution, input string) (*database.AgentExecution, error) {

	llmProvider, err := s.registry.Get(provider.Name)
	if err != nil {
		return s.failExecution(ctx, workflowRun, execution, agent, err.Error())
	}

	req := llm.CompletionRequest{
		Model: agent.Model,
		Messages: []llm.ConversationMessage{
			{Role: llm.RoleUser, Content: []llm.ContentBlock{{Type: llm.BlockText, Text: input}}},
		},
		MaxTokens:   agent.MaxTokens,
		Temperature: agent.Temperature,
	}
	if agent.SystemPrompt != nil {
		req.System = *agent.SystemPrompt
	}

	start := time.Now()
	resp, err := llmProvider.Complete(ctx, req)
	durationMs := time.Since(start).Milliseconds()

	if err != nil {
		return s.failExecution(ctx, workflowRun, execution, agent, err.Error())
	}

	if agent.SystemPrompt != nil {
		_, _ = s.db.AppendMessage(ctx, execution.ID, "system", []any{map[string]any{"type": "text", "text": *agent.SystemPrompt}})
	}
	_, _ = s.db.AppendMessage(ctx, execution.ID, "user", []any{map[string]any{"type": "text", "text": input}})
	outputText := textOf(resp.Message)
	_, _ = s.db.AppendMessage(ctx, execution.ID, "assistant", blocksToAny(resp.Message))

	usage := map[string]any{
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}

	if err := s.db.FinalizeAgentExecution(ctx, execution.ID, "completed", &outputText, usage, durationMs, nil); err != nil {
		return nil, err
	}
	if err := s.db.FinalizeWorkflowRun(ctx, workflowRun.ID, "completed", nil); err != nil {
		// Best-effort: the execution's own terminal state is already durable.
		s.bus.Publish(bus.Event{Type: bus.EventWorkflowRunFailed, WorkflowRunID: workflowRun.ID, Message: err.Error()})
	}

	s.bus.Publish(bus.Event{
		Type:             bus.EventAgentExecutionCompleted,
		WorkflowRunID:    workflowRun.ID,
		AgentExecutionID: execution.ID,
		AgentID:          agent.ID,
		Message:          outputText,
	})
	s.bus.Publish(bus.Event{
		Type:          bus.EventWorkflowRunCompleted,
		WorkflowRunID: workflowRun.ID,
		Status:        "completed",
	})

	return s.db.GetAgentExecution(ctx, execution.ID)
}

func (s *ExecutionService) failExecution(ctx context.Context, workflowRun *database.WorkflowRun, execution *database.AgentExecution, agent *database.Agent, errMsg string) (*database.AgentExecution, error) {
	_ = s.db.FinalizeAgentExecution(ctx, execution.ID, "failed", nil, nil, 0, &errMsg)
	_ = s.db.FinalizeWorkflowRun(ctx, workflowRun.ID, "failed", &errMsg)

	s.bus.Publish(bus.Event{
		Type:             bus.EventAgentExecutionFailed,
		WorkflowRunID:    workflowRun.ID,
		AgentExecutionID: execution.ID,
		AgentID:          agent.ID,
		Message:          errMsg,
	})
	s.bus.Publish(bus.Event{
		Type:          bus.EventWorkflowRunCompleted,
		WorkflowRunID: workflowRun.ID,
		Status:        "failed",
	})

	return s.db.GetAgentExecution(ctx, execution.ID)
}

// GetExecution fetches an execution by id.
func (s *ExecutionService) GetExecution(ctx context.Context, id string) (*database.AgentExecution, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("id", "is required")
	}
	return s.db.GetAgentExecution(ctx, id)
}

// GetExecutionMessages returns an execution's conversation in order.
func (s *ExecutionService) GetExecutionMessages(ctx context.Context, executionID string) ([]*database.AgentMessage, error) {
	if strings.TrimSpace(executionID) == "" {
		return nil, NewValidationError("execution_id", "is required")
	}
	return s.db.ListMessages(ctx, executionID)
}

func textOf(msg llm.ConversationMessage) string {
	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == llm.BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

func blocksToAny(msg llm.ConversationMessage) []any {
	out := make([]any, 0, len(msg.Content))
	for _, b := range msg.Content {
		switch b.Type {
		case llm.BlockText:
			out = append(out, map[string]any{"type": "text", "text": b.Text})
		case llm.BlockToolUse:
			out = append(out, map[string]any{"type": "tool_use", "id": b.ToolUseID, "name": b.Name, "input": b.Input})
		case llm.BlockToolResult:
			out = append(out, map[string]any{"type": "tool_result", "tool_use_id": b.ToolResultForID, "content": b.Content, "is_error": b.IsError})
		}
	}
	return out
}
