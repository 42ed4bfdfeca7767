// Package tools implements the Tool Registry: a name-keyed lookup of
// executable tools, each declaring its own JSON-schema definition and
// running under a caller-supplied Security Context.
package tools

import (
	"context"
	"time"
)

// GitPermission bounds what git subcommands a tool may run.
type GitPermission string

const (
	GitDisabled  GitPermission = "disabled"
	GitReadOnly  GitPermission = "read_only"
	GitReadWrite GitPermission = "read_write"
)

// SecurityContext is the boundary every tool execution runs inside: where it
// may operate, what it may write to, what commands it may run, and how long
// it may take.
type SecurityContext struct {
	WorkingDir       string
	AllowedWriteDirs []string
	AllowedCommands  []string
	GitPermission    GitPermission
	HTTPTimeout      time.Duration
	ShellTimeout     time.Duration
}

// DefaultSecurityContext matches the original implementation's
// conservative default: read-only shell commands, no write access, git
// read-only.
func DefaultSecurityContext(workingDir string) SecurityContext {
	return SecurityContext{
		WorkingDir:      workingDir,
		AllowedCommands: []string{"ls", "cat", "head", "wc", "find", "grep", "tree"},
		GitPermission:   GitReadOnly,
		HTTPTimeout:     30 * time.Second,
		ShellTimeout:    30 * time.Second,
	}
}

// Category is a UI-facing grouping of a tool; it plays no role in access
// control, which is governed entirely by SecurityContext.
type Category string

const (
	CategoryReadOnly       Category = "read_only"
	CategoryFileSystem     Category = "file_system"
	CategoryExecution      Category = "execution"
	CategoryVersionControl Category = "version_control"
	CategoryComposite      Category = "composite"
)

// Definition is the JSON-schema tool declaration sent to a model provider.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Result is the outcome of one tool execution.
type Result struct {
	Content string
	IsError bool
}

// Ok wraps a successful result.
func Ok(content string) Result {
	return Result{Content: content}
}

// Error wraps a failed result. Tool failures are reported through Result,
// not a Go error — a malformed or rejected call must still produce a
// tool_result block the model can see, never an uncaught panic.
func Error(message string) Result {
	return Result{Content: message, IsError: true}
}

// Tool is implemented by every registered tool.
type Tool interface {
	Name() string
	Category() Category
	Definition() Definition
	Execute(ctx context.Context, input map[string]any, sec SecurityContext) Result
}
