package services

import (
	"context"
	"strings"

	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
)

// AgentService validates and persists agent definitions.
type AgentService struct {
	db *database.Client
}

// NewAgentService creates a new AgentService.
func NewAgentService(db *database.Client) *AgentService {
	if db == nil {
		panic("NewAgentService: db must not be nil")
	}
	return &AgentService{db: db}
}

// CreateAgentInput is the validated shape of a create-agent request.
type CreateAgentInput struct {
	WorkflowID    string
	LLMProviderID string
	Name          string
	Description   *string
	SystemPrompt  *string
	Model         string
	Temperature   float64
	MaxTokens     int
}

// CreateAgent validates and creates an agent under a workflow.
func (s *AgentService) CreateAgent(ctx context.Context, in CreateAgentInput) (*database.Agent, error) {
	if strings.TrimSpace(in.WorkflowID) == "" {
		return nil, NewValidationError("workflow_id", "is required")
	}
	if strings.TrimSpace(in.LLMProviderID) == "" {
		return nil, NewValidationError("llm_provider_id", "is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, NewValidationError("name", "is required")
	}
	if strings.TrimSpace(in.Model) == "" {
		return nil, NewValidationError("model", "is required")
	}
	if in.Temperature < 0 || in.Temperature > 2 {
		return nil, NewValidationError("temperature", "must be between 0 and 2")
	}

	return s.db.CreateAgent(ctx, database.CreateAgentParams{
		WorkflowID:    in.WorkflowID,
		LLMProviderID: in.LLMProviderID,
		Name:          in.Name,
		Description:   in.Description,
		SystemPrompt:  in.SystemPrompt,
		Model:         in.Model,
		Temperature:   in.Temperature,
		MaxTokens:     in.MaxTokens,
	})
}

// GetAgent fetches an agent by id.
func (s *AgentService) GetAgent(ctx context.Context, id string) (*database.Agent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("id", "is required")
	}
	return s.db.GetAgent(ctx, id)
}

// ListAgents returns the agents belonging to a workflow.
func (s *AgentService) ListAgents(ctx context.Context, workflowID string) ([]*database.Agent, error) {
	if strings.TrimSpace(workflowID) == "" {
		return nil, NewValidationError("workflow_id", "is required")
	}
	return s.db.ListAgents(ctx, workflowID)
}
