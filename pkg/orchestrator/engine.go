package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codeready-toolchain/orchestrator-core/pkg/bus"
	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
	"github.com/codeready-toolchain/orchestrator-core/pkg/llm"
	"github.com/codeready-toolchain/orchestrator-core/pkg/tools"
)

// Engine is the Tool Loop Engine: it owns the conversation/iteration state
// machine and has no notion of HTTP requests or who started a run.
type Engine struct {
	db            *database.Client
	bus           *bus.Bus
	registry      *llm.Registry
	maxIterations int
}

// NewEngine creates a new Engine. maxIterations should come from
// config.Config.MaxIterations (20 by default).
func NewEngine(db *database.Client, eventBus *bus.Bus, registry *llm.Registry, maxIterations int) *Engine {
	if maxIterations <= 0 {
		maxIterations = 20
	}
	return &Engine{db: db, bus: eventBus, registry: registry, maxIterations: maxIterations}
}

// RunAutomatic drives the loop to completion or failure, persisting
// terminal state and publishing the matching lifecycle event before
// returning. It never returns an error to its caller — every failure mode
// is captured as a finalized "failed" orchestration run instead, since
// this runs detached in a goroutine with nothing to propagate to.
func (e *Engine) RunAutomatic(ctx context.Context, rc RunContext, messages []llm.ConversationMessage, toolReg *tools.Registry) {
	provider, err := e.registry.Get(rc.ProviderName)
	if err != nil {
		e.fail(ctx, rc, err.Error())
		return
	}

	defs := toolReg.DefinitionsFor(toolReg.Names())

	for iteration := 1; iteration <= e.maxIterations; iteration++ {
		resp, err := provider.Complete(ctx, llm.CompletionRequest{
			Model:       rc.Model,
			System:      rc.SystemPrompt,
			Messages:    messages,
			Tools:       toDefinitions(defs),
			MaxTokens:   rc.MaxTokens,
			Temperature: rc.Temperature,
		})
		if err != nil {
			e.fail(ctx, rc, err.Error())
			return
		}

		switch resp.StopReason {
		case llm.StopToolUse:
			messages = append(messages, resp.Message)

			toolUses := extractToolUses(resp.Message)
			results := e.executeToolUses(ctx, toolUses, toolReg, rc)
			messages = append(messages, llm.ConversationMessage{Role: llm.RoleUser, Content: results})

			if err := e.db.UpdateMessagesJSON(ctx, rc.OrchestrationRunID, messagesToAny(messages)); err != nil {
				slog.Warn("failed to persist conversation snapshot", "orchestration_run_id", rc.OrchestrationRunID, "error", err)
			}
			continue
		default:
			// end_turn, max_tokens, or other — all terminal per spec.
			e.complete(ctx, rc, textOf(resp.Message))
			return
		}
	}

	e.fail(ctx, rc, fmt.Sprintf("Tool loop exceeded maximum iterations (%d). Stopping to prevent runaway execution.", e.maxIterations))
}

// RunApproval drives exactly the first iteration. If that iteration
// produces tool_use blocks, the plan is persisted and the run suspends;
// otherwise it completes immediately, same as automatic mode.
func (e *Engine) RunApproval(ctx context.Context, rc RunContext, messages []llm.ConversationMessage, toolReg *tools.Registry) {
	provider, err := e.registry.Get(rc.ProviderName)
	if err != nil {
		e.fail(ctx, rc, err.Error())
		return
	}

	defs := toolReg.DefinitionsFor(toolReg.Names())
	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model:       rc.Model,
		System:      rc.SystemPrompt,
		Messages:    messages,
		Tools:       toDefinitions(defs),
		MaxTokens:   rc.MaxTokens,
		Temperature: rc.Temperature,
	})
	if err != nil {
		e.fail(ctx, rc, err.Error())
		return
	}

	if resp.StopReason != llm.StopToolUse {
		e.complete(ctx, rc, textOf(resp.Message))
		return
	}

	messages = append(messages, resp.Message)
	toolUses := extractToolUses(resp.Message)

	steps := make([]any, 0, len(toolUses))
	for _, b := range toolUses {
		steps = append(steps, map[string]any{"tool_use_id": b.ToolUseID, "name": b.Name, "input": b.Input})
	}
	plan := map[string]any{"steps": steps, "text": textOf(resp.Message)}

	if err := e.db.SaveProposedPlanAndSuspend(ctx, rc.OrchestrationRunID, plan, messagesToAny(messages)); err != nil {
		e.fail(ctx, rc, fmt.Sprintf("failed to save proposed plan: %v", err))
		return
	}

	e.bus.Publish(bus.Event{
		Type:               bus.EventOrchestratorPlanProposed,
		OrchestrationRunID: rc.OrchestrationRunID,
		AgentID:            rc.OrchestratorAgentID,
		Data:               plan,
	})
}

// ResumeAfterApproval re-extracts the pending tool_use blocks from the last
// assistant message, executes them, appends their results, and continues
// the automatic algorithm from that point — matching the original
// approve_orchestration's resume path exactly.
func (e *Engine) ResumeAfterApproval(ctx context.Context, rc RunContext, messages []llm.ConversationMessage, toolReg *tools.Registry) {
	var toolUses []llm.ContentBlock
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleAssistant {
			toolUses = extractToolUses(messages[i])
			break
		}
	}

	results := e.executeToolUses(ctx, toolUses, toolReg, rc)
	messages = append(messages, llm.ConversationMessage{Role: llm.RoleUser, Content: results})

	e.RunAutomatic(ctx, rc, messages, toolReg)
}

func (e *Engine) executeToolUses(ctx context.Context, toolUses []llm.ContentBlock, toolReg *tools.Registry, rc RunContext) []llm.ContentBlock {
	results := make([]llm.ContentBlock, 0, len(toolUses))
	for _, tu := range toolUses {
		sec := tools.DefaultSecurityContext(".")
		result := toolReg.Execute(ctx, tu.Name, tu.Input, sec)
		results = append(results, llm.ContentBlock{
			Type:            llm.BlockToolResult,
			ToolResultForID: tu.ToolUseID,
			Content:         result.Content,
			IsError:         result.IsError,
		})
	}
	return results
}

func (e *Engine) complete(ctx context.Context, rc RunContext, output string) {
	if err := e.db.FinalizeOrchestration(ctx, rc.OrchestrationRunID, "completed", &output, nil); err != nil {
		slog.Error("failed to finalize orchestration run", "orchestration_run_id", rc.OrchestrationRunID, "error", err)
	}
	if err := e.db.FinalizeAgentExecution(ctx, rc.ExecutionID, "completed", &output, nil, 0, nil); err != nil {
		slog.Error("failed to finalize agent execution", "execution_id", rc.ExecutionID, "error", err)
	}
	if err := e.db.FinalizeWorkflowRun(ctx, rc.WorkflowRunID, "completed", nil); err != nil {
		slog.Error("failed to finalize workflow run", "workflow_run_id", rc.WorkflowRunID, "error", err)
	}

	e.bus.Publish(bus.Event{
		Type:             bus.EventAgentExecutionCompleted,
		WorkflowRunID:    rc.WorkflowRunID,
		AgentExecutionID: rc.ExecutionID,
		AgentID:          rc.OrchestratorAgentID,
		Message:          output,
	})
	e.bus.Publish(bus.Event{
		Type:          bus.EventWorkflowRunCompleted,
		WorkflowRunID: rc.WorkflowRunID,
		Status:        "completed",
	})
	e.bus.Publish(bus.Event{
		Type:               bus.EventOrchestratorCompleted,
		OrchestrationRunID: rc.OrchestrationRunID,
		AgentID:            rc.OrchestratorAgentID,
		Message:            output,
	})
}

func (e *Engine) fail(ctx context.Context, rc RunContext, errMsg string) {
	if err := e.db.FinalizeOrchestration(ctx, rc.OrchestrationRunID, "failed", nil, &errMsg); err != nil {
		slog.Error("failed to finalize orchestration run", "orchestration_run_id", rc.OrchestrationRunID, "error", err)
	}
	if err := e.db.FinalizeAgentExecution(ctx, rc.ExecutionID, "failed", nil, nil, 0, &errMsg); err != nil {
		slog.Error("failed to finalize agent execution", "execution_id", rc.ExecutionID, "error", err)
	}
	if err := e.db.FinalizeWorkflowRun(ctx, rc.WorkflowRunID, "failed", &errMsg); err != nil {
		slog.Error("failed to finalize workflow run", "workflow_run_id", rc.WorkflowRunID, "error", err)
	}

	e.bus.Publish(bus.Event{
		Type:             bus.EventAgentExecutionFailed,
		WorkflowRunID:    rc.WorkflowRunID,
		AgentExecutionID: rc.ExecutionID,
		AgentID:          rc.OrchestratorAgentID,
		Message:          errMsg,
	})
	e.bus.Publish(bus.Event{
		Type:          bus.EventWorkflowRunCompleted,
		WorkflowRunID: rc.WorkflowRunID,
		Status:        "failed",
	})
	e.bus.Publish(bus.Event{
		Type:               bus.EventOrchestratorFailed,
		OrchestrationRunID: rc.OrchestrationRunID,
		AgentID:            rc.OrchestratorAgentID,
		Message:            errMsg,
	})
}

func extractToolUses(msg llm.ConversationMessage) []llm.ContentBlock {
	var out []llm.ContentBlock
	for _, b := range msg.Content {
		if b.Type == llm.BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

func textOf(msg llm.ConversationMessage) string {
	for _, b := range msg.Content {
		if b.Type == llm.BlockText {
			return b.Text
		}
	}
	return ""
}

func toDefinitions(defs []tools.Definition) []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, llm.ToolDefinition{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema})
	}
	return out
}

func messagesToAny(messages []llm.ConversationMessage) []any {
	out := make([]any, 0, len(messages))
	for _, m := range messages {
		blocks := make([]any, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case llm.BlockText:
				blocks = append(blocks, map[string]any{"type": "text", "text": b.Text})
			case llm.BlockToolUse:
				blocks = append(blocks, map[string]any{"type": "tool_use", "id": b.ToolUseID, "name": b.Name, "input": b.Input})
			case llm.BlockToolResult:
				blocks = append(blocks, map[string]any{"type": "tool_result", "tool_use_id": b.ToolResultForID, "content": b.Content, "is_error": b.IsError})
			}
		}
		out = append(out, map[string]any{"role": string(m.Role), "content": blocks})
	}
	return out
}
