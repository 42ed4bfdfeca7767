package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubAgentRunner struct {
	createdAgentID string
	createErr      error
	execResult     SubAgentExecutionResult
	execErr        error
	resultOut      SubAgentExecutionResult
	resultErr      error
}

func (f *fakeSubAgentRunner) CreateSubAgent(_ context.Context, _, _, _, _ string) (string, error) {
	return f.createdAgentID, f.createErr
}

func (f *fakeSubAgentRunner) ExecuteSubAgent(_ context.Context, _, _ string) (SubAgentExecutionResult, error) {
	return f.execResult, f.execErr
}

func (f *fakeSubAgentRunner) GetSubAgentResult(_ context.Context, _ string) (SubAgentExecutionResult, error) {
	return f.resultOut, f.resultErr
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	result := r.Execute(context.Background(), "nonexistent", nil, SecurityContext{})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "unknown tool")
}

func TestCreateSubAgentTool(t *testing.T) {
	runner := &fakeSubAgentRunner{createdAgentID: "agent-123"}
	tool := NewCreateSubAgentTool(runner, "workflow-1")

	result := tool.Execute(context.Background(), map[string]any{
		"name":          "Researcher",
		"description":   "digs up facts",
		"system_prompt": "You research things.",
	}, SecurityContext{})

	require.False(t, result.IsError)
	assert.Contains(t, result.Content, "agent-123")
	assert.Contains(t, result.Content, "created")
}

func TestExecuteSubAgentToolIsSynchronous(t *testing.T) {
	runner := &fakeSubAgentRunner{
		execResult: SubAgentExecutionResult{ExecutionID: "exec-1", Status: "completed", OutputText: "done"},
	}
	tool := NewExecuteSubAgentTool(runner)

	result := tool.Execute(context.Background(), map[string]any{
		"agent_id": "agent-123",
		"input":    "go do the thing",
	}, SecurityContext{})

	require.False(t, result.IsError)
	assert.Contains(t, result.Content, "exec-1")
	assert.Contains(t, result.Content, "completed")
}

func TestExecuteSubAgentToolMissingAgentID(t *testing.T) {
	tool := NewExecuteSubAgentTool(&fakeSubAgentRunner{})
	result := tool.Execute(context.Background(), map[string]any{"input": "x"}, SecurityContext{})
	assert.True(t, result.IsError)
}

func TestGetSubAgentResultTool(t *testing.T) {
	runner := &fakeSubAgentRunner{
		resultOut: SubAgentExecutionResult{ExecutionID: "exec-1", AgentID: "agent-123", Status: "completed", OutputText: "42"},
	}
	tool := NewGetSubAgentResultTool(runner)

	result := tool.Execute(context.Background(), map[string]any{"execution_id": "exec-1"}, SecurityContext{})
	require.False(t, result.IsError)
	assert.Contains(t, result.Content, "42")
}

func TestShellExecRejectsChaining(t *testing.T) {
	tool := NewShellExecTool()
	sec := DefaultSecurityContext(".")

	result := tool.Execute(context.Background(), map[string]any{"command": "ls && rm -rf /"}, sec)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "forbidden")
}

func TestShellExecRejectsDisallowedCommand(t *testing.T) {
	tool := NewShellExecTool()
	sec := DefaultSecurityContext(".")

	result := tool.Execute(context.Background(), map[string]any{"command": "rm -rf /"}, sec)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "not in the allowed command list")
}

func TestWebFetchRejectsNonHTTPURL(t *testing.T) {
	tool := NewWebFetchTool()
	result := tool.Execute(context.Background(), map[string]any{"url": "ftp://example.com"}, DefaultSecurityContext("."))
	assert.True(t, result.IsError)
}
