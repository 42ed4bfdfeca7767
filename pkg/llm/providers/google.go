package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/codeready-toolchain/orchestrator-core/pkg/llm"
)

// GoogleProvider implements llm.Provider against the Gemini API. Gemini's
// function-calling format has no per-call id of its own, so ids are
// synthesized deterministically from the call's position in the response —
// the correlating tool_result later references that synthesized id.
type GoogleProvider struct {
	Base
	client *genai.Client
}

// NewGoogleProvider builds a provider bound to apiKey.
func NewGoogleProvider(ctx context.Context, apiKey string) (*GoogleProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("google: failed to create client: %w", err)
	}
	return &GoogleProvider{
		Base:   NewBase("google", 3, time.Second),
		client: client,
	}, nil
}

// Complete sends one request and returns the normalized response.
func (p *GoogleProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	contents := convertMessagesToGemini(req.Messages)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(orDefault(req.MaxTokens, 4096)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		config.Tools = convertToolsToGemini(req.Tools)
	}

	var resp *genai.GenerateContentResponse
	err := p.Retry(ctx, isRetryableGoogleError, func() error {
		var callErr error
		resp, callErr = p.client.Models.GenerateContent(ctx, req.Model, contents, config)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("google: completion failed: %w", err)
	}

	return convertGeminiResponse(resp), nil
}

func convertMessagesToGemini(messages []llm.ConversationMessage) []*genai.Content {
	result := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		for _, block := range msg.Content {
			switch block.Type {
			case llm.BlockText:
				parts = append(parts, genai.NewPartFromText(block.Text))
			case llm.BlockToolUse:
				parts = append(parts, genai.NewPartFromFunctionCall(block.Name, block.Input))
			case llm.BlockToolResult:
				parts = append(parts, genai.NewPartFromFunctionResponse(block.ToolResultForID, map[string]any{
					"content":  block.Content,
					"is_error": block.IsError,
				}))
			}
		}

		result = append(result, &genai.Content{Role: role, Parts: parts})
	}
	return result
}

func convertToolsToGemini(tools []llm.ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGeminiSchema(tool.InputSchema),
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toGeminiSchema converts a JSON Schema map to Gemini's Schema type,
// recursing through properties/items.
func toGeminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}

	schema := &genai.Schema{}

	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = toGeminiSchema(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = toGeminiSchema(items)
	}

	return schema
}

func convertGeminiResponse(resp *genai.GenerateContentResponse) *llm.CompletionResponse {
	var blocks []llm.ContentBlock
	sawFunctionCall := false

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for i, part := range resp.Candidates[0].Content.Parts {
			switch {
			case part.Text != "":
				blocks = append(blocks, llm.ContentBlock{Type: llm.BlockText, Text: part.Text})
			case part.FunctionCall != nil:
				sawFunctionCall = true
				blocks = append(blocks, llm.ContentBlock{
					Type:      llm.BlockToolUse,
					ToolUseID: synthesizeToolCallID(i),
					Name:      part.FunctionCall.Name,
					Input:     part.FunctionCall.Args,
				})
			}
		}
	}

	stopReason := llm.StopEndTurn
	if sawFunctionCall {
		stopReason = llm.StopToolUse
	} else if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		stopReason = llm.StopMaxTokens
	}

	usage := llm.TokenUsage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &llm.CompletionResponse{
		Message: llm.ConversationMessage{
			Role:    llm.RoleAssistant,
			Content: blocks,
		},
		StopReason: stopReason,
		Usage:      usage,
	}
}

// synthesizeToolCallID deterministically derives a correlatable id from the
// call's position in the turn, since Gemini function calls carry no id of
// their own.
func synthesizeToolCallID(position int) string {
	return fmt.Sprintf("fc_%d", position)
}

func isRetryableGoogleError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "500") || strings.Contains(msg, "503")
}
