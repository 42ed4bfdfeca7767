// Package llm defines the provider-agnostic Model Provider Registry: a
// canonical conversation/block model plus a registry of named providers
// that translate it to and from a specific vendor's wire format.
package llm

import "context"

// StopReason is the normalized reason a completion ended, independent of
// the originating provider's own vocabulary.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopOther     StopReason = "other"
)

// BlockType discriminates the variants of ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one block of a block-structured message. Only the fields
// relevant to Type are populated.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockToolUse
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`

	// BlockToolResult
	ToolResultForID string `json:"tool_result_for_id,omitempty"`
	Content         string `json:"content,omitempty"`
	IsError         bool   `json:"is_error,omitempty"`
}

// Role is who produced a ConversationMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one turn in the canonical conversation model, the
// Go analogue of the original implementation's block-structured messages.
type ConversationMessage struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ToolDefinition is a provider-agnostic JSON-schema tool declaration.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// TokenUsage reports input/output token counts for a completion, when the
// provider makes them available.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// CompletionRequest is one model call: full conversation history so far,
// system prompt, declared tools, and generation parameters.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ConversationMessage
	Tools       []ToolDefinition
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is a provider's normalized reply to a CompletionRequest.
type CompletionResponse struct {
	Message    ConversationMessage
	StopReason StopReason
	Usage      TokenUsage
}

// Provider is implemented by each concrete LLM backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
