package services

import (
	"context"
	"strings"

	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
)

// WorkflowService validates and persists workflow definitions.
type WorkflowService struct {
	db *database.Client
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(db *database.Client) *WorkflowService {
	if db == nil {
		panic("NewWorkflowService: db must not be nil")
	}
	return &WorkflowService{db: db}
}

// CreateWorkflow validates and creates a workflow owned by userID.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, userID, name string, description *string) (*database.Workflow, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("user_id", "is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "is required")
	}
	return s.db.CreateWorkflow(ctx, userID, name, description)
}

// GetWorkflow fetches a workflow by id.
func (s *WorkflowService) GetWorkflow(ctx context.Context, id string) (*database.Workflow, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("id", "is required")
	}
	return s.db.GetWorkflow(ctx, id)
}

// ListWorkflows returns the workflows owned by userID.
func (s *WorkflowService) ListWorkflows(ctx context.Context, userID string) ([]*database.Workflow, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("user_id", "is required")
	}
	return s.db.ListWorkflows(ctx, userID)
}
