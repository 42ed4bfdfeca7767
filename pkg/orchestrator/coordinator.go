package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
	"github.com/codeready-toolchain/orchestrator-core/pkg/bus"
	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
	"github.com/codeready-toolchain/orchestrator-core/pkg/llm"
	"github.com/codeready-toolchain/orchestrator-core/pkg/services"
	"github.com/codeready-toolchain/orchestrator-core/pkg/tools"
)

const maxOrchestrationInputLength = 100_000

// orchestratorRolePrompt is appended to the orchestrator agent's own
// system prompt so the model understands its tool-calling role on top of
// whatever persona the agent record already gives it.
const orchestratorRolePrompt = `

You are operating as an orchestrator agent. You can break down complex tasks by creating and
delegating to sub-agents using the following tools:

- create_sub_agent: create a new sub-agent scoped to this workflow
- execute_sub_agent: run a sub-agent against an input prompt and wait for its result
- get_sub_agent_result: look up the result of a sub-agent execution you already ran

Use these tools when a task benefits from delegation. When you are done, respond with your
final answer in plain text and no further tool calls.`

// Coordinator is the Orchestration Coordinator: the public start/approve/
// reject/get surface over the Tool Loop Engine. It owns request validation
// and the transactional start of a run; the Engine owns the loop itself.
type Coordinator struct {
	db          *database.Client
	bus         *bus.Bus
	llmRegistry *llm.Registry
	executor    *services.ExecutionService
	engine      *Engine
}

// NewCoordinator wires a Coordinator from its dependencies.
func NewCoordinator(db *database.Client, eventBus *bus.Bus, llmRegistry *llm.Registry, executor *services.ExecutionService, maxIterations int) *Coordinator {
	if db == nil || eventBus == nil || llmRegistry == nil || executor == nil {
		panic("NewCoordinator: all dependencies are required")
	}
	return &Coordinator{
		db:          db,
		bus:         eventBus,
		llmRegistry: llmRegistry,
		executor:    executor,
		engine:      NewEngine(db, eventBus, llmRegistry, maxIterations),
	}
}

// StartRequest describes a request to start a new orchestration run.
type StartRequest struct {
	WorkflowID          string
	OrchestratorAgentID string
	Mode                string // "automatic" or "approval"
	Input               string
}

// Start validates the request, opens the durable run state in one
// transaction, publishes the lifecycle-start events, and launches the
// engine loop in a background goroutine. It returns as soon as the run is
// durably "running" — the caller never waits on the loop itself.
func (c *Coordinator) Start(ctx context.Context, req StartRequest) (*database.OrchestrationRun, error) {
	if req.Mode != "automatic" && req.Mode != "approval" {
		return nil, services.NewValidationError("mode", `must be "automatic" or "approval"`)
	}
	if len(req.Input) > maxOrchestrationInputLength {
		return nil, apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("input text too long (%d bytes), maximum is %d bytes", len(req.Input), maxOrchestrationInputLength))
	}
	if strings.TrimSpace(req.WorkflowID) == "" {
		return nil, services.NewValidationError("workflow_id", "is required")
	}
	if strings.TrimSpace(req.OrchestratorAgentID) == "" {
		return nil, services.NewValidationError("orchestrator_agent_id", "is required")
	}

	agent, err := c.db.GetAgent(ctx, req.OrchestratorAgentID)
	if err != nil {
		return nil, err
	}
	if !agent.IsActive {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "orchestrator agent is not active")
	}
	provider, err := c.db.GetLLMProvider(ctx, agent.LLMProviderID)
	if err != nil {
		return nil, err
	}

	inputCopy := req.Input
	started, err := c.db.StartOrchestration(ctx, database.StartOrchestrationParams{
		WorkflowID:          req.WorkflowID,
		OrchestratorAgentID: req.OrchestratorAgentID,
		Mode:                req.Mode,
		InputText:           &inputCopy,
	})
	if err != nil {
		return nil, err
	}

	c.bus.Publish(bus.Event{
		Type:          bus.EventWorkflowRunStarted,
		WorkflowRunID: started.WorkflowRun.ID,
	})
	c.bus.Publish(bus.Event{
		Type:               bus.EventAgentExecutionStarted,
		WorkflowRunID:      started.WorkflowRun.ID,
		AgentExecutionID:   started.Execution.ID,
		AgentID:            agent.ID,
		OrchestrationRunID: started.OrchestrationRun.ID,
	})

	rc := c.runContext(started.OrchestrationRun, agent, provider, req.Mode)
	toolReg := c.buildToolRegistry(ctx, agent, req.WorkflowID)

	messages := []llm.ConversationMessage{
		{Role: llm.RoleUser, Content: []llm.ContentBlock{{Type: llm.BlockText, Text: req.Input}}},
	}

	go func() {
		defer logRunPanic(rc.OrchestrationRunID)
		runCtx := context.Background()
		if rc.Mode == "approval" {
			c.engine.RunApproval(runCtx, rc, messages, toolReg)
			return
		}
		c.engine.RunAutomatic(runCtx, rc, messages, toolReg)
	}()

	return started.OrchestrationRun, nil
}

// Approve transitions an awaiting_approval run back to running, executes
// the pending tool calls that were held for review, and resumes the
// automatic loop from there.
func (c *Coordinator) Approve(ctx context.Context, orchestrationRunID string) (*database.OrchestrationRun, error) {
	run, err := c.db.GetOrchestrationRun(ctx, orchestrationRunID)
	if err != nil {
		return nil, err
	}
	if run.Status != "awaiting_approval" {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "orchestration run is not awaiting approval")
	}

	resumed, err := c.db.ApproveAndResume(ctx, orchestrationRunID)
	if err != nil {
		return nil, err
	}

	agent, err := c.db.GetAgent(ctx, resumed.OrchestratorAgentID)
	if err != nil {
		return nil, err
	}
	provider, err := c.db.GetLLMProvider(ctx, agent.LLMProviderID)
	if err != nil {
		return nil, err
	}

	c.bus.Publish(bus.Event{
		Type:               bus.EventOrchestratorPlanApproved,
		OrchestrationRunID: resumed.ID,
		AgentID:            agent.ID,
	})

	rc := c.runContext(resumed, agent, provider, "automatic")
	toolReg := c.buildToolRegistry(ctx, agent, agent.WorkflowID)
	messages := decodeMessages(resumed.MessagesJSON)

	go func() {
		defer logRunPanic(rc.OrchestrationRunID)
		c.engine.ResumeAfterApproval(context.Background(), rc, messages, toolReg)
	}()

	return resumed, nil
}

// Reject ends an awaiting_approval run without executing its pending
// plan, cascading the rejection down to the agent execution and workflow
// run it belongs to.
func (c *Coordinator) Reject(ctx context.Context, orchestrationRunID, reason string) (*database.OrchestrationRun, error) {
	run, err := c.db.GetOrchestrationRun(ctx, orchestrationRunID)
	if err != nil {
		return nil, err
	}
	if run.Status != "awaiting_approval" {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "orchestration run is not awaiting approval")
	}
	if reason == "" {
		reason = "rejected by user"
	}

	rejected, err := c.db.RejectOrchestration(ctx, orchestrationRunID, reason)
	if err != nil {
		return nil, err
	}

	if err := c.db.FinalizeAgentExecution(ctx, rejected.ExecutionID, "failed", nil, nil, 0, &reason); err != nil {
		return nil, err
	}
	if err := c.db.FinalizeWorkflowRun(ctx, rejected.WorkflowRunID, "failed", &reason); err != nil {
		return nil, err
	}

	c.bus.Publish(bus.Event{
		Type:             bus.EventAgentExecutionFailed,
		WorkflowRunID:    rejected.WorkflowRunID,
		AgentExecutionID: rejected.ExecutionID,
		Message:          reason,
	})
	c.bus.Publish(bus.Event{
		Type:          bus.EventWorkflowRunCompleted,
		WorkflowRunID: rejected.WorkflowRunID,
		Status:        "failed",
	})
	c.bus.Publish(bus.Event{
		Type:               bus.EventOrchestratorPlanRejected,
		OrchestrationRunID: rejected.ID,
		Message:            reason,
	})

	return rejected, nil
}

// Get fetches an orchestration run by id.
func (c *Coordinator) Get(ctx context.Context, orchestrationRunID string) (*database.OrchestrationRun, error) {
	if strings.TrimSpace(orchestrationRunID) == "" {
		return nil, services.NewValidationError("id", "is required")
	}
	return c.db.GetOrchestrationRun(ctx, orchestrationRunID)
}

// logRunPanic recovers a panic in a run's background goroutine and logs it.
// The run is not finalized, so it stays in its last persisted status.
func logRunPanic(orchestrationRunID string) {
	if r := recover(); r != nil {
		slog.Error("orchestration run goroutine panicked", "orchestration_run_id", orchestrationRunID, "panic", r)
	}
}

func (c *Coordinator) runContext(run *database.OrchestrationRun, agent *database.Agent, provider *database.LLMProvider, mode string) RunContext {
	systemPrompt := orchestratorRolePrompt
	if agent.SystemPrompt != nil {
		systemPrompt = *agent.SystemPrompt + orchestratorRolePrompt
	}
	return RunContext{
		OrchestrationRunID:  run.ID,
		ExecutionID:         run.ExecutionID,
		WorkflowRunID:       run.WorkflowRunID,
		OrchestratorAgentID: agent.ID,
		WorkflowID:          agent.WorkflowID,
		ProviderName:        provider.Name,
		Model:               agent.Model,
		SystemPrompt:        systemPrompt,
		Temperature:         agent.Temperature,
		MaxTokens:           agent.MaxTokens,
		Mode:                mode,
	}
}

// buildToolRegistry assembles the per-run Tool Registry: the three
// orchestrator-intrinsic tools, always present, plus web_fetch/shell_exec
// when the orchestrator agent has them enabled via tool_permissions —
// mirroring the general-purpose enabled_tools mechanism the rest of the
// pack's tool-permission model supports.
func (c *Coordinator) buildToolRegistry(ctx context.Context, agent *database.Agent, workflowID string) *tools.Registry {
	runner := newSubAgentRunner(c.db, c.executor, agent.LLMProviderID, agent.Model)

	reg := tools.NewRegistry()
	reg.Register(tools.NewCreateSubAgentTool(runner, workflowID))
	reg.Register(tools.NewExecuteSubAgentTool(runner))
	reg.Register(tools.NewGetSubAgentResultTool(runner))

	if enabled, err := c.db.IsToolEnabled(ctx, agent.ID, "web_fetch"); err == nil && enabled {
		reg.Register(tools.NewWebFetchTool())
	}
	if enabled, err := c.db.IsToolEnabled(ctx, agent.ID, "shell_exec"); err == nil && enabled {
		reg.Register(tools.NewShellExecTool())
	}

	return reg
}

func decodeMessages(raw []any) []llm.ConversationMessage {
	out := make([]llm.ConversationMessage, 0, len(raw))
	for _, rm := range raw {
		m, ok := rm.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		rawBlocks, _ := m["content"].([]any)

		blocks := make([]llm.ContentBlock, 0, len(rawBlocks))
		for _, rb := range rawBlocks {
			b, ok := rb.(map[string]any)
			if !ok {
				continue
			}
			blocks = append(blocks, decodeBlock(b))
		}
		out = append(out, llm.ConversationMessage{Role: llm.Role(role), Content: blocks})
	}
	return out
}

func decodeBlock(b map[string]any) llm.ContentBlock {
	typ, _ := b["type"].(string)
	switch llm.BlockType(typ) {
	case llm.BlockText:
		text, _ := b["text"].(string)
		return llm.ContentBlock{Type: llm.BlockText, Text: text}
	case llm.BlockToolUse:
		id, _ := b["id"].(string)
		name, _ := b["name"].(string)
		input, _ := b["input"].(map[string]any)
		return llm.ContentBlock{Type: llm.BlockToolUse, ToolUseID: id, Name: name, Input: input}
	case llm.BlockToolResult:
		toolUseID, _ := b["tool_use_id"].(string)
		content, _ := b["content"].(string)
		isError, _ := b["is_error"].(bool)
		return llm.ContentBlock{Type: llm.BlockToolResult, ToolResultForID: toolUseID, Content: content, IsError: isError}
	default:
		return llm.ContentBlock{}
	}
}
