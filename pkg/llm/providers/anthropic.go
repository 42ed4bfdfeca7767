package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/codeready-toolchain/orchestrator-core/pkg/llm"
)

// AnthropicProvider implements llm.Provider against the Anthropic Messages
// API. Anthropic's wire format is already block-structured with stable
// tool_use ids, so no id synthesis is required on either direction.
type AnthropicProvider struct {
	Base
	client anthropic.Client
}

// NewAnthropicProvider builds a provider bound to apiKey.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		Base:   NewBase("anthropic", 3, time.Second),
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Complete sends one request and returns the normalized response.
func (p *AnthropicProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params := buildAnthropicParams(req)

	var resp *anthropic.Message
	err := p.Retry(ctx, isRetryableAnthropicError, func() error {
		var callErr error
		resp, callErr = p.client.Messages.New(ctx, params)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: completion failed: %w", err)
	}

	return convertAnthropicResponse(resp), nil
}

func buildAnthropicParams(req llm.CompletionRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  convertMessagesToAnthropic(req.Messages),
		MaxTokens: int64(orDefault(req.MaxTokens, 4096)),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}

	if len(req.Tools) > 0 {
		params.Tools = convertToolsToAnthropic(req.Tools)
	}

	return params
}

func convertMessagesToAnthropic(messages []llm.ConversationMessage) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		for _, block := range msg.Content {
			switch block.Type {
			case llm.BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			case llm.BlockToolUse:
				blocks = append(blocks, anthropic.NewToolUseBlock(block.ToolUseID, block.Input, block.Name))
			case llm.BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(block.ToolResultForID, block.Content, block.IsError))
			}
		}

		if msg.Role == llm.RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		} else {
			result = append(result, anthropic.NewUserMessage(blocks...))
		}
	}

	return result
}

func convertToolsToAnthropic(tools []llm.ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Properties: tool.InputSchema["properties"],
		}
		if required, ok := tool.InputSchema["required"].([]string); ok {
			schema.Required = required
		}
		param := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if param.OfTool != nil {
			param.OfTool.Description = anthropic.String(tool.Description)
		}
		result = append(result, param)
	}
	return result
}

func convertAnthropicResponse(resp *anthropic.Message) *llm.CompletionResponse {
	var blocks []llm.ContentBlock
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			blocks = append(blocks, llm.ContentBlock{Type: llm.BlockText, Text: block.Text})
		case "tool_use":
			toolUse := block.AsToolUse()
			var input map[string]any
			if err := json.Unmarshal(toolUse.Input, &input); err != nil {
				input = map[string]any{}
			}
			blocks = append(blocks, llm.ContentBlock{
				Type:      llm.BlockToolUse,
				ToolUseID: toolUse.ID,
				Name:      toolUse.Name,
				Input:     input,
			})
		}
	}

	return &llm.CompletionResponse{
		Message: llm.ConversationMessage{
			Role:    llm.RoleAssistant,
			Content: blocks,
		},
		StopReason: normalizeAnthropicStopReason(string(resp.StopReason)),
		Usage: llm.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
}

func normalizeAnthropicStopReason(reason string) llm.StopReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return llm.StopEndTurn
	case "tool_use":
		return llm.StopToolUse
	case "max_tokens":
		return llm.StopMaxTokens
	default:
		return llm.StopOther
	}
}

func isRetryableAnthropicError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
