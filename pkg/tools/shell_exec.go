package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// forbiddenShellPatterns are shell metacharacters that would allow chaining
// or redirection past the single-command allowlist check below.
var forbiddenShellPatterns = []string{"&&", "||", ";", "|", "$(", "`", "${", ">", ">>", "<", "\n", "\r"}

// shellExecTool runs a single allowlisted command and returns its output.
// Like webFetchTool, this exists to exercise SecurityContext's command
// allowlist and shell timeout, not as a production-grade sandbox.
type shellExecTool struct{}

// NewShellExecTool returns the shell_exec tool.
func NewShellExecTool() Tool {
	return &shellExecTool{}
}

func (t *shellExecTool) Name() string       { return "shell_exec" }
func (t *shellExecTool) Category() Category { return CategoryExecution }

func (t *shellExecTool) Definition() Definition {
	return Definition{
		Name:        "shell_exec",
		Description: "Execute a shell command and return stdout/stderr. Commands must be in the allowed list.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command":     map[string]any{"type": "string", "description": "The shell command to execute"},
				"working_dir": map[string]any{"type": "string", "description": "Working directory for the command (optional)"},
			},
			"required": []string{"command"},
		},
	}
}

func (t *shellExecTool) Execute(ctx context.Context, input map[string]any, sec SecurityContext) Result {
	command, _ := input["command"].(string)
	if command == "" {
		return Error("missing 'command' parameter")
	}

	workingDir := sec.WorkingDir
	if v, ok := input["working_dir"].(string); ok && v != "" {
		workingDir = v
	}

	for _, pattern := range forbiddenShellPatterns {
		if strings.Contains(command, pattern) {
			return Error(fmt.Sprintf("command contains forbidden shell metacharacter %q; each command must be a single, simple command without chaining or redirection", pattern))
		}
	}

	baseCommand := strings.Fields(command)[0]
	allowed := false
	for _, cmd := range sec.AllowedCommands {
		if baseCommand == cmd {
			allowed = true
			break
		}
	}
	if !allowed {
		return Error(fmt.Sprintf("command %q is not in the allowed command list: %v", baseCommand, sec.AllowedCommands))
	}

	timeout := sec.ShellTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(execCtx, "bash", "-c", command)
	cmd.Dir = workingDir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	durationMs := time.Since(start).Milliseconds()

	if execCtx.Err() != nil {
		return Error(fmt.Sprintf("command timed out after %s", timeout))
	}

	exitCode := 0
	success := err == nil
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return Error(fmt.Sprintf("failed to execute command: %v", err))
	}

	return Ok(fmt.Sprintf(`{"command":%q,"exit_code":%d,"stdout":%q,"stderr":%q,"duration_ms":%d,"success":%v}`,
		command, exitCode, truncateOutput(stdout.String()), truncateOutput(stderr.String()), durationMs, success))
}

func truncateOutput(s string) string {
	const maxOutput = 50_000
	if len(s) > maxOutput {
		return s[:maxOutput] + "...\n[truncated]"
	}
	return s
}
